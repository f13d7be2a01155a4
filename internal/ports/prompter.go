package ports

import (
	"context"

	"github.com/bft-labs/aq2rdb/internal/domain"
)

// InteractivePrompter completes the named missing fields of a single
// request. It is only consulted when an output file is supplied and no
// control file is in use; batch and standard-output runs never call it.
type InteractivePrompter interface {
	Complete(ctx context.Context, fields []string, req domain.RawRequest) (domain.RawRequest, error)
}
