package app

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/aq2rdb/internal/adapters/hydra"
	logadapter "github.com/bft-labs/aq2rdb/internal/adapters/log"
	"github.com/bft-labs/aq2rdb/internal/adapters/rdb"
	"github.com/bft-labs/aq2rdb/internal/ctlfile"
	"github.com/bft-labs/aq2rdb/internal/dispatch"
	"github.com/bft-labs/aq2rdb/internal/domain"
	"github.com/bft-labs/aq2rdb/internal/output"
	"github.com/bft-labs/aq2rdb/internal/ports"
	"github.com/bft-labs/aq2rdb/internal/resolve"
)

// RunConfig contains the settings of one run.
type RunConfig struct {
	// ControlFile is the control file to process. When empty the run
	// handles the single Request instead.
	ControlFile string
	Request     domain.RawRequest
	Options     resolve.Options

	// Stdout receives the report when no output path is set.
	Stdout io.Writer

	// TempDir holds hydra reports. Empty means the system temporary directory.
	TempDir string
}

// Deps are the collaborators of a run. Formatters defaults to the RDB
// header formatter over Stations; every other field may be nil.
type Deps struct {
	Stations   ports.StationMetadataService
	Primary    ports.PrimaryDDResolver
	Formatters map[domain.Datatype]ports.Formatter
	Prompter   ports.InteractivePrompter
	Observer   ports.RunObserver
	Summaries  ports.SummaryRepository
	Logger     ports.Logger
}

// Runner executes runs: it builds the output router and dispatcher for
// each run, drives the control file or single request through them and
// reports the outcome.
type Runner struct {
	config RunConfig
	deps   Deps
	now    func() time.Time
}

// NewRunner creates a runner with the given configuration and dependencies.
func NewRunner(config RunConfig, deps Deps) *Runner {
	if deps.Formatters == nil {
		deps.Formatters = rdb.Formatters(rdb.NewHeaderFormatter(deps.Stations))
	}
	if deps.Logger == nil {
		deps.Logger = logadapter.NewNoopLogger()
	}
	return &Runner{config: config, deps: deps, now: time.Now}
}

// Run performs one run and returns its summary. The error is non-nil
// only when the run was aborted; summary.Status is the exit status in
// both cases.
func (r *Runner) Run(ctx context.Context) (ports.RunSummary, error) {
	summary := ports.RunSummary{
		RunID:       uuid.NewString(),
		ControlFile: r.config.ControlFile,
		Started:     r.now(),
	}
	logger := withFields(r.deps.Logger, ports.String("run_id", summary.RunID))

	tally, path, err := r.run(ctx, logger)

	summary.Output = path
	summary.RowsRead = tally.Rows
	summary.Dispatched = tally.Dispatched
	summary.Skipped = tally.Skipped
	summary.Finished = r.now()
	if err != nil {
		summary.Status = domain.StatusOf(err)
		summary.Error = err.Error()
	} else {
		summary.Status = tally.Status()
	}

	logger.Info("run finished",
		ports.Int("rows", summary.RowsRead),
		ports.Int("dispatched", summary.Dispatched),
		ports.Int("skipped", summary.Skipped),
		ports.Int("status", int(summary.Status)),
		ports.Duration("duration", summary.Finished.Sub(summary.Started)),
	)

	if r.deps.Observer != nil {
		r.deps.Observer.OnRun(summary)
	}
	if r.deps.Summaries != nil {
		if serr := r.deps.Summaries.Save(ctx, summary); serr != nil {
			logger.Warn("failed to save run summary", ports.Err(serr))
		}
	}
	return summary, err
}

func (r *Runner) run(ctx context.Context, logger ports.Logger) (dispatch.Tally, string, error) {
	opts := r.config.Options
	batch := r.config.ControlFile != ""

	var pipe *hydra.Pipe
	if opts.Flags.Hydra {
		var err error
		if pipe, opts, err = r.openHydra(opts, batch); err != nil {
			return dispatch.Tally{}, "", err
		}
	}

	router, err := output.New(output.Config{
		Path:      opts.OutputPath,
		MultiFile: opts.Flags.MultiFile,
		Batch:     batch,
		Stdout:    r.config.Stdout,
		Logger:    logger,
	})
	if err != nil {
		r.discard(pipe, opts.OutputPath)
		return dispatch.Tally{}, "", err
	}
	opts.Flags.Keyed = router.Keyed(batch)

	d := dispatch.New(dispatch.Config{
		Formatters: r.deps.Formatters,
		Primary:    r.deps.Primary,
		Router:     router,
		Logger:     logger,
		Observer:   r.deps.Observer,
		Prompter:   r.deps.Prompter,
	})

	var tally dispatch.Tally
	if batch {
		tally, err = r.runControlFile(ctx, d, opts)
	} else {
		tally, err = d.RunRequest(ctx, r.config.Request, opts)
	}

	if cerr := router.Close(); cerr != nil && err == nil {
		err = cerr
	}
	path := router.Path()

	if pipe != nil {
		if err != nil {
			r.discard(pipe, opts.OutputPath)
		} else if err = pipe.Signal(opts.OutputPath); err == nil {
			logger.Info("hydra signaled", ports.String("pipe", pipe.Path()), ports.String("report", opts.OutputPath))
		}
	}
	return tally, path, err
}

func (r *Runner) runControlFile(ctx context.Context, d *dispatch.Dispatcher, opts resolve.Options) (dispatch.Tally, error) {
	reader, err := ctlfile.Open(r.config.ControlFile)
	if err != nil {
		return dispatch.Tally{}, err
	}
	defer reader.Close()
	return d.RunControlFile(ctx, reader, opts)
}

// openHydra validates a hydra request, checks the named pipe and points
// the output at a fresh temporary report.
func (r *Runner) openHydra(opts resolve.Options, batch bool) (*hydra.Pipe, resolve.Options, error) {
	if batch {
		return nil, opts, &domain.FieldsError{Err: domain.ErrIncompatibleFlags, Fields: []string{"control-file"}}
	}
	if _, err := resolve.Single(r.config.Request, opts); err != nil &&
		!errors.Is(err, domain.ErrNeedsInteractiveCompletion) {
		return nil, opts, err
	}

	pipe, err := hydra.Open(opts.OutputPath)
	if err != nil {
		return nil, opts, err
	}
	report, err := pipe.TempReport(r.config.TempDir)
	if err != nil {
		return nil, opts, err
	}
	opts.OutputPath = report
	return pipe, opts, nil
}

func (r *Runner) discard(pipe *hydra.Pipe, report string) {
	if pipe != nil && report != "" {
		os.Remove(report)
	}
}
