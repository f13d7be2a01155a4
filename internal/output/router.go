// Package output manages the destination of RDB reports for a run.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bft-labs/aq2rdb/internal/datefill"
	"github.com/bft-labs/aq2rdb/internal/domain"
	"github.com/bft-labs/aq2rdb/internal/fixed"
	"github.com/bft-labs/aq2rdb/internal/ports"
)

// Mode selects where reports are written.
type Mode int

const (
	// ModeSingleFile writes every request of the run to one file.
	ModeSingleFile Mode = iota
	// ModeMultiFile writes each control-file row to its own file, named
	// from an output path prefix.
	ModeMultiFile
	// ModeStdout writes every request to standard output.
	ModeStdout
)

// String returns a human-readable representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeSingleFile:
		return "SingleFile"
	case ModeMultiFile:
		return "MultiFile"
	case ModeStdout:
		return "Stdout"
	default:
		return "Unknown"
	}
}

// Config configures a Router.
type Config struct {
	// Path is the output file, or the file name prefix in multi-file mode.
	Path      string
	MultiFile bool
	// Batch is set when requests come from a control file. Multi-file
	// output is ignored for single requests.
	Batch  bool
	Stdout io.Writer
	Logger ports.Logger
}

// Router owns the single active output handle of a run. It is not safe
// for concurrent use.
type Router struct {
	mode   Mode
	path   string
	stdout *countingWriter
	logger ports.Logger

	file     *os.File
	filePath string
	written  *countingWriter

	datatype domain.Datatype
	msType   string
	closed   bool
}

// New creates a router for cfg.
func New(cfg Config) (*Router, error) {
	r := &Router{path: cfg.Path, logger: cfg.Logger}
	switch {
	case cfg.MultiFile && cfg.Batch:
		if cfg.Path == "" {
			return nil, domain.ErrMultiFileWithoutPath
		}
		r.mode = ModeMultiFile
	case cfg.Path == "":
		r.mode = ModeStdout
	default:
		r.mode = ModeSingleFile
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	r.stdout = &countingWriter{w: cfg.Stdout}
	return r, nil
}

// Mode returns the router's output mode.
func (r *Router) Mode() Mode { return r.mode }

// Keyed reports whether several requests may share one output, so each
// row set must carry its key columns.
func (r *Router) Keyed(batch bool) bool {
	return batch && r.mode != ModeMultiFile
}

// Acquire returns the output for spec, opening a file when needed.
//
// Outside multi-file mode the first request fixes the datatype of the run,
// and for measurements the measurement type; later requests that differ
// fail with domain.ErrDatatypeMismatch or domain.ErrMeasurementTypeMismatch.
func (r *Router) Acquire(spec domain.RequestSpec) (ports.Output, error) {
	if r.closed {
		return ports.Output{}, fmt.Errorf("%w: router closed", domain.ErrResource)
	}
	if r.mode != ModeMultiFile {
		if err := r.checkFirst(spec); err != nil {
			return ports.Output{}, domain.AtLine(spec.Line, err)
		}
	}

	switch r.mode {
	case ModeStdout:
		return ports.Output{Writer: r.stdout, Fresh: r.stdout.n == 0}, nil
	case ModeSingleFile:
		if r.file == nil {
			if err := r.open(r.path); err != nil {
				return ports.Output{}, domain.AtLine(spec.Line, err)
			}
		}
	case ModeMultiFile:
		if err := r.closeFile(); err != nil {
			return ports.Output{}, err
		}
		if err := r.open(FileName(r.path, spec)); err != nil {
			return ports.Output{}, domain.AtLine(spec.Line, err)
		}
	}
	return ports.Output{Writer: r.written, Path: r.filePath, Fresh: r.written.n == 0}, nil
}

// Close closes the active file, if any. The file is kept.
func (r *Router) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.closeFile()
}

// Path returns the file most recently opened, empty for standard output.
func (r *Router) Path() string { return r.filePath }

func (r *Router) checkFirst(spec domain.RequestSpec) error {
	if r.datatype == "" {
		r.datatype = spec.Datatype
	} else if spec.Datatype != r.datatype {
		return fmt.Errorf("%w: datatype %q, first request datatype %q",
			domain.ErrDatatypeMismatch, spec.Datatype, r.datatype)
	}
	if spec.Datatype != domain.MS {
		return nil
	}
	msType := fixed.Truncate(spec.Stat, 1)
	if r.msType == "" {
		r.msType = msType
	} else if msType != r.msType {
		return fmt.Errorf("%w: measurement type %q, first measurement type %q",
			domain.ErrMeasurementTypeMismatch, msType, r.msType)
	}
	return nil
}

func (r *Router) open(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrOpenOutput, path, err)
	}
	r.file = f
	r.filePath = path
	r.written = &countingWriter{w: f}
	if r.logger != nil {
		r.logger.Info("writing file", ports.String("path", path))
	}
	return nil
}

func (r *Router) closeFile() error {
	if r.file == nil {
		return nil
	}
	f := r.file
	r.file = nil
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", domain.ErrResource, r.filePath, err)
	}
	return nil
}

// FileName returns the multi-file output name for spec:
//
//	prefix.DATATYPE.AGENCY.STATION[.DDID][.STAT].BEGINDATE.rdb
//
// DDID is omitted for MS, PK, WL and QW; STAT for DC, SV, WL and QW.
func FileName(prefix string, spec domain.RequestSpec) string {
	parts := []string{prefix, string(spec.Datatype), spec.Agency, spec.Station}
	if spec.Datatype.RequiresDDID() {
		parts = append(parts, fixed.Left(spec.DDID, domain.DDIDWidth))
	}
	if spec.Datatype.RequiresStat() {
		parts = append(parts, spec.Stat)
	}
	parts = append(parts, fixed.Truncate(spec.Begin, datefill.DateWidth), "rdb")
	return strings.Join(parts, ".")
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
