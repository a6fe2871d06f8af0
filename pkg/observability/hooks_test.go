package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	s := NoopStageHooks{}
	s.OnStageStart(ctx, "anatomical-views")
	s.OnStageComplete(ctx, "anatomical-views", 18, time.Second, nil)
	s.OnStageSkip(ctx, "subcortical", "/data/MNINonLinear/ROIs/Atlas_ROIs.2.nii.gz")

	tl := NoopToolHooks{}
	tl.OnToolStart(ctx, "wb_command", []string{"-show-scene"})
	tl.OnToolComplete(ctx, "wb_command", time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "frame")
	c.OnCacheMiss(ctx, "frame")
	c.OnCacheSet(ctx, "frame", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Stage().(NoopStageHooks); !ok {
		t.Error("Stage() should return NoopStageHooks by default")
	}
	if _, ok := Tool().(NoopToolHooks); !ok {
		t.Error("Tool() should return NoopToolHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	customStage := &testStageHooks{}
	SetStageHooks(customStage)
	if Stage() != customStage {
		t.Error("SetStageHooks should set custom hooks")
	}

	customTool := &testToolHooks{}
	SetToolHooks(customTool)
	if Tool() != customTool {
		t.Error("SetToolHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	Reset()
	if _, ok := Stage().(NoopStageHooks); !ok {
		t.Error("Reset() should restore NoopStageHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testStageHooks{}
	SetStageHooks(custom)
	SetStageHooks(nil)

	if Stage() != custom {
		t.Error("SetStageHooks(nil) should be ignored")
	}

	Reset()
}

type testStageHooks struct{ NoopStageHooks }
type testToolHooks struct{ NoopToolHooks }
type testCacheHooks struct{ NoopCacheHooks }
