// Package dispatch drives resolved requests through their formatters.
//
// A run is a strictly sequential loop: each request is resolved, routed to
// an output and formatted before the next is read. Errors are classified
// per request as continue, skip-row or abort-run.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bft-labs/aq2rdb/internal/ctlfile"
	"github.com/bft-labs/aq2rdb/internal/domain"
	"github.com/bft-labs/aq2rdb/internal/ports"
	"github.com/bft-labs/aq2rdb/internal/resolve"
)

// Request outcomes reported to the RunObserver.
const (
	OutcomeDispatched = "dispatched"
	OutcomeSkipped    = "skipped"
	OutcomeAborted    = "aborted"
)

// Router hands out the output for each request.
type Router interface {
	Acquire(spec domain.RequestSpec) (ports.Output, error)
}

// Config configures a Dispatcher.
type Config struct {
	Formatters map[domain.Datatype]ports.Formatter
	Primary    ports.PrimaryDDResolver
	Router     Router
	Logger     ports.Logger
	Observer   ports.RunObserver
	Prompter   ports.InteractivePrompter
}

// Dispatcher runs requests against their bound formatters.
type Dispatcher struct {
	formatters map[domain.Datatype]ports.Formatter
	primary    ports.PrimaryDDResolver
	router     Router
	logger     ports.Logger
	observer   ports.RunObserver
	prompter   ports.InteractivePrompter
}

// New creates a dispatcher. Logger and Observer may be nil.
func New(cfg Config) *Dispatcher {
	return &Dispatcher{
		formatters: cfg.Formatters,
		primary:    cfg.Primary,
		router:     cfg.Router,
		logger:     cfg.Logger,
		observer:   cfg.Observer,
		prompter:   cfg.Prompter,
	}
}

// Dispatch resolves the primary descriptor of spec if needed, acquires its
// output and invokes the formatter bound to its datatype.
func (d *Dispatcher) Dispatch(ctx context.Context, spec domain.RequestSpec) (domain.Status, error) {
	if spec.NeedsPrimaryDD() {
		if d.primary == nil {
			return domain.StatusNoData, domain.AtLine(spec.Line, fmt.Errorf("%w for station %s %s, parameter %s",
				domain.ErrNoPrimaryDD, spec.Agency, spec.Station, spec.Parameter))
		}
		var err error
		if spec, err = resolve.PrimaryDD(ctx, spec, d.primary); err != nil {
			return domain.StatusNoData, err
		}
	}

	f, ok := d.formatters[spec.Datatype]
	if !ok {
		return domain.StatusNoData, fmt.Errorf("%w: %s", domain.ErrNoFormatter, spec.Datatype)
	}
	out, err := d.router.Acquire(spec)
	if err != nil {
		return domain.StatusNoData, err
	}

	status, err := f.Format(ctx, spec, out)
	if err != nil {
		if !classified(err) {
			err = fmt.Errorf("%w: %s formatter: %w", domain.ErrCollaborator, spec.Datatype, err)
		}
		return RequestStatus(err), domain.AtLine(spec.Line, err)
	}
	return status, nil
}

// RunControlFile dispatches every row of r. The returned error is non-nil
// only when the run was aborted.
func (d *Dispatcher) RunControlFile(ctx context.Context, r *ctlfile.Reader, opts resolve.Options) (Tally, error) {
	var tally Tally

	d.info("processing control file", ports.String("path", r.Name()))
	if err := r.ReadPreamble(); err != nil {
		d.logError("control file rejected", err)
		return tally, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return tally, err
		}
		row, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			d.logError("control file rejected", err)
			return tally, err
		}
		tally.Rows++

		spec, err := resolve.Row(row, opts)
		if err != nil {
			if d.fail(&tally, domain.Datatype(row.Datatype), err, true) == AbortRun {
				return tally, err
			}
			continue
		}
		if err := d.run(ctx, &tally, spec, true); err != nil {
			return tally, err
		}
	}
	return tally, nil
}

// RunRequest resolves and dispatches a single request. Missing fields are
// completed by the prompter when an output file is in use.
func (d *Dispatcher) RunRequest(ctx context.Context, req domain.RawRequest, opts resolve.Options) (Tally, error) {
	tally := Tally{Rows: 1}

	spec, err := resolve.Single(req, opts)
	var fe *domain.FieldsError
	if errors.Is(err, domain.ErrNeedsInteractiveCompletion) && errors.As(err, &fe) &&
		opts.OutputPath != "" && d.prompter != nil {
		d.info("completing request interactively", ports.Any("fields", fe.Fields))
		completed, perr := d.prompter.Complete(ctx, fe.Fields, req)
		if perr != nil {
			err = fmt.Errorf("%w: %w", err, perr)
		} else {
			spec, err = resolve.Completed(completed, opts)
		}
	}
	if err != nil {
		dt, _ := domain.ParseDatatype(req.Datatype)
		d.fail(&tally, dt, err, false)
		return tally, err
	}
	return tally, d.run(ctx, &tally, spec, false)
}

// run dispatches spec and records its outcome. It returns an error only
// when the run must abort.
func (d *Dispatcher) run(ctx context.Context, tally *Tally, spec domain.RequestSpec, batch bool) error {
	status, err := d.Dispatch(ctx, spec)
	if err == nil {
		tally.Dispatched++
		tally.Record(status)
		d.observe(spec.Datatype, OutcomeDispatched, status)
		d.debug("request dispatched",
			ports.Line(spec.Line),
			ports.String("datatype", string(spec.Datatype)),
			ports.String("station", spec.Station),
			ports.Int("status", int(status)))
		return nil
	}

	switch d.fail(tally, spec.Datatype, err, batch) {
	case AbortRun:
		return err
	case Continue:
		tally.Dispatched++
	}
	return nil
}

// fail logs err, records the request's status and returns the outcome.
func (d *Dispatcher) fail(tally *Tally, dt domain.Datatype, err error, batch bool) Outcome {
	outcome := Classify(err, batch)
	status := RequestStatus(err)
	fields := []ports.Field{ports.String("datatype", string(dt)), ports.Err(err)}
	if line := domain.LineOf(err); line > 0 {
		fields = append(fields, ports.Line(line))
	}

	switch outcome {
	case AbortRun:
		d.observe(dt, OutcomeAborted, domain.StatusOf(err))
		if d.logger != nil {
			d.logger.Error("run aborted", fields...)
		}
	case SkipRow:
		tally.Skipped++
		tally.Record(status)
		d.observe(dt, OutcomeSkipped, status)
		if d.logger != nil {
			d.logger.Warn("row skipped", fields...)
		}
	default:
		tally.Record(status)
		d.observe(dt, OutcomeDispatched, status)
		if d.logger != nil {
			d.logger.Warn("request failed", append(fields, ports.Int("status", int(status)))...)
		}
	}
	return outcome
}

func (d *Dispatcher) observe(dt domain.Datatype, outcome string, status domain.Status) {
	if d.observer != nil {
		d.observer.OnRequest(dt, outcome, status)
	}
}

func (d *Dispatcher) info(msg string, fields ...ports.Field) {
	if d.logger != nil {
		d.logger.Info(msg, fields...)
	}
}

func (d *Dispatcher) debug(msg string, fields ...ports.Field) {
	if d.logger != nil {
		d.logger.Debug(msg, fields...)
	}
}

func (d *Dispatcher) logError(msg string, err error) {
	if d.logger != nil {
		fields := []ports.Field{ports.Err(err)}
		if line := domain.LineOf(err); line > 0 {
			fields = append(fields, ports.Line(line))
		}
		d.logger.Error(msg, fields...)
	}
}

// classified reports whether err already belongs to an error class.
func classified(err error) bool {
	for _, class := range []error{
		domain.ErrControlFileFormat, domain.ErrFieldValidation, domain.ErrSubtype,
		domain.ErrResource, domain.ErrCollaborator, domain.ErrConfiguration,
	} {
		if errors.Is(err, class) {
			return true
		}
	}
	return false
}
