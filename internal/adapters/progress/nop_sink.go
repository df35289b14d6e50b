package progress

import (
	"context"

	"github.com/trebuchet-org/ensmock/internal/domain/config"
	"github.com/trebuchet-org/ensmock/internal/usecase"
)

// NopSink discards progress. Used for JSON output and non-terminal runs.
type NopSink struct{}

// NewNopSink creates a new no-op progress sink
func NewNopSink() usecase.ProgressSink {
	return &NopSink{}
}

func (n *NopSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {}

func (n *NopSink) Info(message string) {}

func (n *NopSink) Error(message string) {}

// ProvideProgressSink picks the spinner for interactive text output and the
// no-op sink otherwise
func ProvideProgressSink(cfg *config.RuntimeConfig) usecase.ProgressSink {
	if cfg.JSON || cfg.Debug || !IsTerminal() {
		return NewNopSink()
	}
	return NewSpinnerProgress()
}

var _ usecase.ProgressSink = (*NopSink)(nil)
