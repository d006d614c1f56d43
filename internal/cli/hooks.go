package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/qlogtree/pkg/observability"
)

// logHooks reports pipeline, cache, and HTTP events at debug level.
type logHooks struct {
	logger *log.Logger
}

// RegisterHooks routes observability events to the CLI logger.
// main calls it once before executing a command.
func (c *CLI) RegisterHooks() {
	h := &logHooks{logger: c.Logger}
	observability.Register(observability.Hooks{Pipeline: h, Cache: h, HTTP: h})
}

func (h *logHooks) OnExtractStart(_ context.Context, eventCount int) {
	h.logger.Debug("extract started", "events", eventCount)
}

func (h *logHooks) OnExtractComplete(_ context.Context, snapshotCount int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("extract failed", "error", err)
		return
	}
	h.logger.Debug("extract done", "snapshots", snapshotCount, "duration", d.Round(time.Microsecond))
}

func (h *logHooks) OnRenderStart(_ context.Context, index int, formats []string) {
	h.logger.Debug("render started", "snapshot", index, "formats", formats)
}

func (h *logHooks) OnRenderComplete(_ context.Context, index int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("render failed", "snapshot", index, "error", err)
		return
	}
	h.logger.Debug("render done", "snapshot", index, "duration", d.Round(time.Microsecond))
}

func (h *logHooks) OnTimelineComplete(_ context.Context, frameCount, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("timeline failed", "error", err)
		return
	}
	h.logger.Debug("timeline assembled", "frames", frameCount, "bytes", size, "duration", d.Round(time.Microsecond))
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

// HTTP requests are already logged by the server middleware; only
// responses that failed are repeated here.
func (h *logHooks) OnRequest(context.Context, string, string) {}

func (h *logHooks) OnResponse(_ context.Context, method, path string, status int, d time.Duration) {
	if status >= 500 {
		h.logger.Warn("request failed", "method", method, "path", path, "status", status, "duration", d)
	}
}
