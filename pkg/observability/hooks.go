// Package observability lets a binary observe the pipeline without the
// libraries depending on a metrics or tracing backend.
//
// Libraries emit events through the package-level accessors:
//
//	start := time.Now()
//	observability.Pipeline().OnExtractStart(ctx, len(events))
//	snaps, err := deptree.Extract(events, mode)
//	observability.Pipeline().OnExtractComplete(ctx, len(snaps), time.Since(start), err)
//
// A binary installs its implementations once, before the first command runs:
//
//	restore := observability.Register(observability.Hooks{
//	    Pipeline: myHooks,
//	    Cache:    myHooks,
//	})
//	defer restore()
//
// Categories left nil in [Hooks] keep whatever was registered before, which
// starts out as the no-op implementations.
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// PipelineHooks receives events from the snapshot pipeline.
type PipelineHooks interface {
	OnExtractStart(ctx context.Context, eventCount int)
	OnExtractComplete(ctx context.Context, snapshotCount int, duration time.Duration, err error)

	// Called once per snapshot.
	OnRenderStart(ctx context.Context, index int, formats []string)
	OnRenderComplete(ctx context.Context, index int, duration time.Duration, err error)

	OnTimelineComplete(ctx context.Context, frameCount, size int, duration time.Duration, err error)
}

// CacheHooks receives cache lookups and writes. keyType is "artifact",
// "timeline" or "trace".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, path string)
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// NoopPipelineHooks ignores every pipeline event.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnExtractStart(context.Context, int)                                {}
func (NoopPipelineHooks) OnExtractComplete(context.Context, int, time.Duration, error)       {}
func (NoopPipelineHooks) OnRenderStart(context.Context, int, []string)                       {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, int, time.Duration, error)        {}
func (NoopPipelineHooks) OnTimelineComplete(context.Context, int, int, time.Duration, error) {}

// NoopCacheHooks ignores every cache event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores every HTTP event.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// Hooks bundles one implementation per event category.
type Hooks struct {
	Pipeline PipelineHooks
	Cache    CacheHooks
	HTTP     HTTPHooks
}

func noop() *Hooks {
	return &Hooks{
		Pipeline: NoopPipelineHooks{},
		Cache:    NoopCacheHooks{},
		HTTP:     NoopHTTPHooks{},
	}
}

var current atomic.Pointer[Hooks]

func init() { current.Store(noop()) }

// Register installs h over the current hooks and returns a function that
// restores the previous set. Nil fields are ignored.
func Register(h Hooks) (restore func()) {
	prev := current.Load()
	next := *prev
	if h.Pipeline != nil {
		next.Pipeline = h.Pipeline
	}
	if h.Cache != nil {
		next.Cache = h.Cache
	}
	if h.HTTP != nil {
		next.HTTP = h.HTTP
	}
	current.Store(&next)
	return func() { current.Store(prev) }
}

// SetPipelineHooks registers pipeline hooks. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) { Register(Hooks{Pipeline: h}) }

// SetCacheHooks registers cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) { Register(Hooks{Cache: h}) }

// SetHTTPHooks registers HTTP hooks. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) { Register(Hooks{HTTP: h}) }

func Pipeline() PipelineHooks { return current.Load().Pipeline }
func Cache() CacheHooks       { return current.Load().Cache }
func HTTP() HTTPHooks         { return current.Load().HTTP }

// Reset restores the no-op hooks.
func Reset() { current.Store(noop()) }
