package ports

import (
	"context"
	"io"

	"github.com/bft-labs/aq2rdb/internal/domain"
)

// Output is the destination handle supplied to a Formatter.
type Output struct {
	io.Writer

	// Path is the file being written, empty for standard output.
	Path string

	// Fresh is true when nothing has been written to the handle yet.
	// Keyed formatters write their header block only on a fresh handle.
	Fresh bool
}

// Formatter writes the RDB report for one resolved request.
// Implementations own row formatting, rounding and data retrieval; the
// returned status becomes the request's status.
type Formatter interface {
	Format(ctx context.Context, spec domain.RequestSpec, out Output) (domain.Status, error)
}

// FormatterFunc adapts a function to the Formatter interface.
type FormatterFunc func(ctx context.Context, spec domain.RequestSpec, out Output) (domain.Status, error)

// Format calls f(ctx, spec, out).
func (f FormatterFunc) Format(ctx context.Context, spec domain.RequestSpec, out Output) (domain.Status, error) {
	return f(ctx, spec, out)
}
