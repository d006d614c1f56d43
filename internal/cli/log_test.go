package cli

import (
	"bytes"
	"context"
	"regexp"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		debug   bool
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, false, true},
		{"debug at info level", log.InfoLevel, true, false},
		{"debug at debug level", log.DebugLevel, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.level)
			if tt.debug {
				logger.Debug("snapshot", "index", 0)
			} else {
				logger.Info("snapshot", "index", 0)
			}
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("wrote output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestStopwatch(t *testing.T) {
	var buf bytes.Buffer
	startStopwatch(newLogger(&buf, log.InfoLevel)).donef("Rendered %d snapshots", 3)

	if !regexp.MustCompile(`Rendered 3 snapshots \(\d+(\.\d+)?[µnm]?s\)`).MatchString(buf.String()) {
		t.Errorf("donef() output = %q, want message with elapsed time", buf.String())
	}
}

func TestLevelLabels(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.DebugLevel)
	logger.Warn("cache disabled")
	if !bytes.Contains(buf.Bytes(), []byte("WARN")) {
		t.Errorf("output %q lacks the WARN label", buf.String())
	}
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	h := &logHooks{logger: newLogger(&buf, log.DebugLevel)}

	ctx := context.Background()
	h.OnExtractComplete(ctx, 4, 0, nil)
	h.OnCacheHit(ctx, "svg")
	h.OnResponse(ctx, "POST", "/v1/timeline", 200, 0)

	out := buf.String()
	for _, want := range []string{"extract done", "snapshots=4", "cache hit", "type=svg"} {
		if !bytes.Contains([]byte(out), []byte(want)) {
			t.Errorf("hook output %q lacks %q", out, want)
		}
	}
	if bytes.Contains([]byte(out), []byte("request failed")) {
		t.Error("successful responses should not be logged by the hooks")
	}
}
