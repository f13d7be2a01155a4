package dispatch

import (
	"context"
	"errors"

	"github.com/bft-labs/aq2rdb/internal/domain"
)

// Outcome is the disposition of a request after an error.
type Outcome int

const (
	// Continue proceeds with the next request. The error, if any, only
	// sets the request's status.
	Continue Outcome = iota
	// SkipRow discards the current control-file row.
	SkipRow
	// AbortRun stops the run.
	AbortRun
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case Continue:
		return "continue"
	case SkipRow:
		return "skip-row"
	case AbortRun:
		return "abort-run"
	default:
		return "unknown"
	}
}

// Classify decides how the run proceeds after err. batch is set when
// requests come from a control file.
func Classify(err error, batch bool) Outcome {
	switch {
	case err == nil:
		return Continue
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return AbortRun
	case errors.Is(err, domain.ErrControlFileFormat),
		errors.Is(err, domain.ErrResource),
		errors.Is(err, domain.ErrConfiguration):
		return AbortRun
	case errors.Is(err, domain.ErrFieldValidation), errors.Is(err, domain.ErrSubtype):
		if batch {
			return SkipRow
		}
		return AbortRun
	default:
		return Continue
	}
}

// RequestStatus returns the status recorded for a request that failed
// with err but did not abort the run.
func RequestStatus(err error) domain.Status {
	var se *domain.StatusError
	switch {
	case err == nil:
		return domain.StatusOK
	case errors.As(err, &se):
		return se.Status
	case errors.Is(err, domain.ErrMalformedDateRange):
		return domain.StatusBadDateRange
	default:
		return domain.StatusNoData
	}
}

// Tally accumulates request statuses into the run status.
type Tally struct {
	Rows       int
	Dispatched int
	Skipped    int

	badRange    bool
	provisional bool
	data        bool
}

// Record adds the status of one request.
func (t *Tally) Record(s domain.Status) {
	switch s {
	case domain.StatusOK:
		t.data = true
	case domain.StatusProvisional:
		t.data = true
		t.provisional = true
	case domain.StatusBadDateRange:
		t.badRange = true
	}
}

// Status returns the run status: a bad date range wins over an empty
// result, which wins over provisional data.
func (t *Tally) Status() domain.Status {
	switch {
	case t.badRange:
		return domain.StatusBadDateRange
	case !t.data:
		return domain.StatusNoData
	case t.provisional:
		return domain.StatusProvisional
	default:
		return domain.StatusOK
	}
}
