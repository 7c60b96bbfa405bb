package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressReporterEmitAndSubscribe(t *testing.T) {
	pr := NewProgressReporter()
	defer pr.Close()

	pr.Emit(ProgressEvent{File: "a.go", Status: ProgressComplete})

	ev := <-pr.Subscribe()
	assert.Equal(t, "a.go", ev.File)
	assert.Equal(t, ProgressComplete, ev.Status)
}

func TestProgressReporterDropsEventsWhenChannelFull(t *testing.T) {
	pr := NewProgressReporter()
	defer pr.Close()

	for i := 0; i < 100; i++ {
		pr.Emit(ProgressEvent{File: "overflow.go", Status: ProgressPending})
	}
	// Should not block or panic; channel buffer is 64, excess silently dropped.
	assert.LessOrEqual(t, len(pr.ch), 64)
}

func TestFormatProgressRendersEachStatus(t *testing.T) {
	require.Contains(t, FormatProgress(ProgressEvent{File: "a.go", Status: ProgressPending}), "pending")
	require.Contains(t, FormatProgress(ProgressEvent{File: "a.go", Status: ProgressWorking}), "a.go")
	require.Contains(t, FormatProgress(ProgressEvent{File: "a.go", Status: ProgressComplete}), "complete")
	require.Contains(t, FormatProgress(ProgressEvent{File: "a.go", Status: ProgressFailed, Message: "boom"}), "boom")
	require.Contains(t, FormatProgress(ProgressEvent{File: "a.go", Status: "weird"}), "unknown status")
}
