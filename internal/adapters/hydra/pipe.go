// Package hydra signals a Hydra consumer through a named pipe. In hydra
// mode the report is written to a temporary file and only its path is
// sent down the pipe.
package hydra

import (
	"fmt"
	"os"

	"github.com/bft-labs/aq2rdb/internal/domain"
)

// Pipe is the signaling channel to a Hydra consumer.
type Pipe struct {
	path string
}

// Open checks that path exists and is a named pipe.
func Open(path string) (*Pipe, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrHydraPipeMissing, path, err)
	}
	if fi.Mode()&os.ModeNamedPipe == 0 {
		return nil, fmt.Errorf("%w: %s is not a named pipe", domain.ErrHydraPipeMissing, path)
	}
	return &Pipe{path: path}, nil
}

// Path returns the pipe path.
func (p *Pipe) Path() string { return p.path }

// TempReport creates the temporary report file in dir (the system
// temporary directory when empty) and returns its path.
func (p *Pipe) TempReport(dir string) (string, error) {
	f, err := os.CreateTemp(dir, "aq2rdb-*.rdb")
	if err != nil {
		return "", fmt.Errorf("%w: temporary report: %v", domain.ErrOpenOutput, err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("%w: temporary report: %v", domain.ErrOpenOutput, err)
	}
	return name, nil
}

// Signal writes "reference <report>" to the pipe. If the pipe cannot be
// written the report is deleted.
func (p *Pipe) Signal(report string) error {
	f, err := os.OpenFile(p.path, os.O_WRONLY, 0)
	if err != nil {
		os.Remove(report)
		return fmt.Errorf("%w: %s: %v", domain.ErrHydraPipeWrite, p.path, err)
	}
	_, werr := fmt.Fprintf(f, "reference %s\n", report)
	cerr := f.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(report)
		return fmt.Errorf("%w: %s: %v", domain.ErrHydraPipeWrite, p.path, werr)
	}
	return nil
}
