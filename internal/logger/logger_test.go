package logger

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// capture enables verbose output into a buffer and restores state on cleanup.
func capture(t *testing.T, v bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(v)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
		now = time.Now
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		log     func()
		want    string
	}{
		{"debug verbose", true, func() { Debug("walked %d files", 3) }, "[DEBUG] walked 3 files\n"},
		{"debug quiet", false, func() { Debug("walked %d files", 3) }, ""},
		{"info verbose", true, func() { Info("model %s", "llama3.2") }, "[INFO] model llama3.2\n"},
		{"info quiet", false, func() { Info("model %s", "llama3.2") }, ""},
		{"warn quiet", false, func() { Warn("retries exhausted for %s", "main.go") }, "[WARN] retries exhausted for main.go\n"},
		{"warn verbose", true, func() { Warn("retries exhausted for %s", "main.go") }, "[WARN] retries exhausted for main.go\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, tt.verbose)
			tt.log()
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestStage(t *testing.T) {
	buf := capture(t, true)
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	calls := 0
	now = func() time.Time {
		calls++
		if calls == 1 {
			return start
		}
		return start.Add(1500 * time.Millisecond)
	}

	done := Stage("Analysis")
	assert.Equal(t, "\n=== Analysis ===\n", buf.String())

	done()
	assert.Contains(t, buf.String(), "=== Analysis done in 1.5s ===\n")
}

func TestStage_Quiet(t *testing.T) {
	buf := capture(t, false)

	Stage("Analysis")()

	assert.Empty(t, buf.String())
}
