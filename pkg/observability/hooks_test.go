package observability

import (
	"context"
	"testing"
	"time"
)

type countingHooks struct {
	NoopPipelineHooks
	NoopCacheHooks
	hits, misses int
}

func (h *countingHooks) OnCacheHit(context.Context, string)  { h.hits++ }
func (h *countingHooks) OnCacheMiss(context.Context, string) { h.misses++ }

func TestDefaultsAreNoop(t *testing.T) {
	Reset()
	ctx := context.Background()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Errorf("Pipeline() = %T, want NoopPipelineHooks", Pipeline())
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("Cache() = %T, want NoopCacheHooks", Cache())
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Errorf("HTTP() = %T, want NoopHTTPHooks", HTTP())
	}

	Pipeline().OnExtractStart(ctx, 120)
	Pipeline().OnTimelineComplete(ctx, 4, 2048, time.Second, nil)
	Cache().OnCacheSet(ctx, "artifact", 1024)
	HTTP().OnResponse(ctx, "POST", "/v1/snapshots", 200, time.Second)
}

func TestRegister(t *testing.T) {
	Reset()
	defer Reset()

	h := &countingHooks{}
	restore := Register(Hooks{Pipeline: h, Cache: h})

	if Pipeline() != PipelineHooks(h) || Cache() != CacheHooks(h) {
		t.Fatal("Register() should install the given hooks")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Errorf("HTTP() = %T, a nil field should keep the previous hooks", HTTP())
	}

	ctx := context.Background()
	Cache().OnCacheHit(ctx, "artifact")
	Cache().OnCacheMiss(ctx, "timeline")
	Cache().OnCacheMiss(ctx, "trace")
	if h.hits != 1 || h.misses != 2 {
		t.Errorf("hits, misses = %d, %d, want 1, 2", h.hits, h.misses)
	}

	restore()
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("after restore Cache() = %T", Cache())
	}
}

func TestSetNilIsIgnored(t *testing.T) {
	Reset()
	defer Reset()

	h := &countingHooks{}
	SetCacheHooks(h)
	SetCacheHooks(nil)
	SetPipelineHooks(nil)

	if Cache() != CacheHooks(h) {
		t.Error("SetCacheHooks(nil) should keep the registered hooks")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("SetPipelineHooks(nil) should keep the no-op hooks")
	}
}
