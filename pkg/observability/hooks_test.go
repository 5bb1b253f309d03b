package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	b := NoopBuildHooks{}
	b.OnPlanBuilt(ctx, "Shop", 7, 0)
	b.OnBuildStart(ctx, "Shop", 7)
	b.OnBuildComplete(ctx, "Shop", 3, time.Second, nil)
	b.OnRenderStart(ctx, "png", 3)
	b.OnRenderComplete(ctx, "png", 2048, time.Second, nil)

	cmd := NoopCommandHooks{}
	cmd.OnCommandStart(ctx, "declare_node", 3)
	cmd.OnCommandComplete(ctx, "declare_node", 3, time.Millisecond, nil)
	cmd.OnCommandSkipped(ctx, "unknown", 4)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "artifact")
	c.OnCacheMiss(ctx, "artifact")
	c.OnCacheSet(ctx, "artifact", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/v1/diagrams")
	h.OnResponse(ctx, "POST", "/v1/diagrams", 200, time.Second)
	h.OnError(ctx, "POST", "/v1/diagrams", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	if _, ok := Build().(NoopBuildHooks); !ok {
		t.Error("Build() should return NoopBuildHooks by default")
	}
	if _, ok := Command().(NoopCommandHooks); !ok {
		t.Error("Command() should return NoopCommandHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customBuild := &testBuildHooks{}
	SetBuildHooks(customBuild)
	if Build() != customBuild {
		t.Error("SetBuildHooks should set custom hooks")
	}

	customCommand := &testCommandHooks{}
	SetCommandHooks(customCommand)
	if Command() != customCommand {
		t.Error("SetCommandHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Build().(NoopBuildHooks); !ok {
		t.Error("Reset() should restore NoopBuildHooks")
	}
	if _, ok := Command().(NoopCommandHooks); !ok {
		t.Error("Reset() should restore NoopCommandHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	custom := &testCommandHooks{}
	SetCommandHooks(custom)
	SetCommandHooks(nil)

	if Command() != custom {
		t.Error("SetCommandHooks(nil) should be ignored")
	}
}

type testBuildHooks struct{ NoopBuildHooks }
type testCommandHooks struct{ NoopCommandHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
