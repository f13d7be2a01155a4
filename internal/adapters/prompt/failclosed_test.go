package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/bft-labs/aq2rdb/internal/domain"
	"github.com/bft-labs/aq2rdb/internal/ports"
)

func TestFailClosed(t *testing.T) {
	var p ports.InteractivePrompter = FailClosed{}
	req := domain.RawRequest{Datatype: "DV"}

	got, err := p.Complete(context.Background(), []string{"station", "begin"}, req)
	if !errors.Is(err, domain.ErrPromptUnavailable) {
		t.Fatalf("Complete() error = %v, want ErrPromptUnavailable", err)
	}
	if got != req {
		t.Errorf("Complete() = %+v, want request unchanged", got)
	}
}
