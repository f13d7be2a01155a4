// Package prompt provides InteractivePrompter implementations.
package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/bft-labs/aq2rdb/internal/domain"
)

// FailClosed is the default prompter. It never completes a request.
type FailClosed struct{}

// Complete always fails with domain.ErrPromptUnavailable.
func (FailClosed) Complete(_ context.Context, fields []string, req domain.RawRequest) (domain.RawRequest, error) {
	return req, fmt.Errorf("%w: cannot ask for %s", domain.ErrPromptUnavailable, strings.Join(fields, ", "))
}
