package ports

import (
	"context"
	"time"

	"github.com/bft-labs/aq2rdb/internal/domain"
)

// RunObserver is notified of request and run outcomes.
type RunObserver interface {
	// OnRequest is called once per dispatched or discarded request.
	// outcome is "dispatched", "skipped" or "aborted".
	OnRequest(datatype domain.Datatype, outcome string, status domain.Status)

	// OnRun is called when a run finishes.
	OnRun(summary RunSummary)
}

// RunSummary describes a finished run.
type RunSummary struct {
	RunID       string        `json:"run_id"`
	ControlFile string        `json:"control_file,omitempty"`
	Output      string        `json:"output,omitempty"`
	RowsRead    int           `json:"rows_read"`
	Dispatched  int           `json:"dispatched"`
	Skipped     int           `json:"skipped"`
	Status      domain.Status `json:"status"`
	Error       string        `json:"error,omitempty"`
	Started     time.Time     `json:"started"`
	Finished    time.Time     `json:"finished"`
}

// SummaryRepository persists the summary of the most recent run.
type SummaryRepository interface {
	Save(ctx context.Context, summary RunSummary) error
}
