// Package fs persists run summaries as JSON files.
package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/bft-labs/aq2rdb/internal/ports"
)

// SummaryFileRepository implements ports.SummaryRepository using a JSON file.
type SummaryFileRepository struct {
	path string
}

// NewSummaryFileRepository creates a repository writing to path.
func NewSummaryFileRepository(path string) *SummaryFileRepository {
	return &SummaryFileRepository{path: path}
}

// Load retrieves the last saved summary from disk.
// Returns an empty summary and nil error if no summary file exists.
func (r *SummaryFileRepository) Load(ctx context.Context) (ports.RunSummary, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ports.RunSummary{}, nil
		}
		return ports.RunSummary{}, err
	}

	var summary ports.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return ports.RunSummary{}, err
	}
	return summary, nil
}

// Save persists the summary atomically by writing a temporary file and
// renaming it over the previous one.
func (r *SummaryFileRepository) Save(ctx context.Context, summary ports.RunSummary) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, r.path)
}

// Path returns the summary file path.
func (r *SummaryFileRepository) Path() string {
	return r.path
}
