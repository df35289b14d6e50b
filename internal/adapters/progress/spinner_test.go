package progress

import (
	"bytes"
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/trebuchet-org/ensmock/internal/domain/config"
	"github.com/trebuchet-org/ensmock/internal/usecase"
)

func TestSpinnerProgress_DisplayTrail(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	var out bytes.Buffer
	r := newSpinnerProgress(&out)
	ctx := context.Background()

	r.OnProgress(ctx, usecase.ProgressEvent{Stage: usecase.StageCheckingCode, Message: "Checking registry code"})
	r.OnProgress(ctx, usecase.ProgressEvent{Stage: usecase.StageInstalling, Message: "Installing registry"})
	r.OnProgress(ctx, usecase.ProgressEvent{Stage: usecase.StageWritingSlot, Message: "Writing root owner"})
	r.OnProgress(ctx, usecase.ProgressEvent{Stage: usecase.StageWritingSlot, Message: "Writing default resolver"})

	display := r.display()
	assert.Contains(t, display, "✓ Checking code → ✓ Installing → ● Writing storage")
	assert.Contains(t, display, ": Writing default resolver")
	assert.Len(t, r.stages, 4)
	assert.False(t, r.stages[0].EndTime.IsZero())
	assert.True(t, r.stages[3].EndTime.IsZero())
}

func TestSpinnerProgress_InfoWritesLine(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	var out bytes.Buffer
	r := newSpinnerProgress(&out)
	r.Info("hello")
	r.Error("boom")

	assert.Equal(t, "hello\nboom\n", out.String())
}

func TestProvideProgressSink_JSONIsNop(t *testing.T) {
	sink := ProvideProgressSink(&config.RuntimeConfig{JSON: true})
	assert.IsType(t, &NopSink{}, sink)

	sink = ProvideProgressSink(&config.RuntimeConfig{Debug: true})
	assert.IsType(t, &NopSink{}, sink)
}
