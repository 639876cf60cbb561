package observability

import (
	"context"
	"testing"
	"time"
)

type recordingHooks struct {
	NoopPipelineHooks
	events []string
}

func (r *recordingHooks) OnNormalizeStart(_ context.Context, docHash string) {
	r.events = append(r.events, "normalize:"+docHash)
}

func (r *recordingHooks) OnLayoutComplete(_ context.Context, direction string, _ time.Duration, _ error) {
	r.events = append(r.events, "layout:"+direction)
}

func TestDefaultsAreNoops(t *testing.T) {
	Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Errorf("Pipeline() = %T, want NoopPipelineHooks", Pipeline())
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("Cache() = %T, want NoopCacheHooks", Cache())
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Errorf("HTTP() = %T, want NoopHTTPHooks", HTTP())
	}

	// No-ops must accept any arguments without panicking.
	ctx := context.Background()
	Pipeline().OnNormalizeComplete(ctx, "abc", 10, time.Second, nil)
	Pipeline().OnRenderStart(ctx, []string{"svg", "png"})
	Cache().OnCacheSet(ctx, "artifact", 1024)
	HTTP().OnError(ctx, "GET", "example.com", "/tree.json", nil)
}

func TestRegisteredHooksReceiveEvents(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	rec := &recordingHooks{}
	SetPipelineHooks(rec)

	ctx := context.Background()
	Pipeline().OnNormalizeStart(ctx, "deadbeef")
	Pipeline().OnLayoutComplete(ctx, "forward", time.Millisecond, nil)

	want := []string{"normalize:deadbeef", "layout:forward"}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %v, want %v", rec.events, want)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, rec.events[i], want[i])
		}
	}
}

func TestSetNilIsIgnored(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	rec := &recordingHooks{}
	SetPipelineHooks(rec)
	SetPipelineHooks(nil)
	SetCacheHooks(nil)
	SetHTTPHooks(nil)

	if Pipeline() != rec {
		t.Error("SetPipelineHooks(nil) replaced registered hooks")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("SetCacheHooks(nil) replaced the default")
	}
}
