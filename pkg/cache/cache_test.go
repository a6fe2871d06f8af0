package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}

	frame := []byte("\x89PNG fake frame")
	if err := c.Set(ctx, "frame:1", frame, TTLFrame); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, hit, err := c.Get(ctx, "frame:1")
	if err != nil || !hit {
		t.Fatalf("Get hit=%v err=%v", hit, err)
	}
	if string(got) != string(frame) {
		t.Errorf("Get = %q, want %q", got, frame)
	}

	if err := c.Delete(ctx, "frame:1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "frame:1"); hit {
		t.Error("entry should be gone after Delete")
	}
	if err := c.Delete(ctx, "frame:1"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

func TestFileCacheExpired(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(2 * time.Millisecond)

	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should be a miss")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := NewFileCache(dir)
	fc := c.(*FileCache)

	path := fc.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("short"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCacheNoExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", nil, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, hit, err := c.Get(ctx, "k")
	if err != nil || !hit {
		t.Fatalf("Get hit=%v err=%v", hit, err)
	}
	if len(got) != 0 {
		t.Errorf("Get = %q, want empty", got)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}

	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	k1 := k.FrameKey("scenehash", FrameKeyOpts{Index: "1", Width: 900, Height: 800})
	k2 := k.FrameKey("scenehash", FrameKeyOpts{Index: "2", Width: 900, Height: 800})
	k3 := k.FrameKey("scenehash", FrameKeyOpts{Index: "1", Width: 450, Height: 400})
	k4 := k.FrameKey("scenehash", FrameKeyOpts{Index: "1", Width: 900, Height: 800})

	if k1 == k2 || k1 == k3 {
		t.Error("Different FrameKeyOpts should produce different keys")
	}
	if k1 != k4 {
		t.Error("FrameKey should be deterministic")
	}
	if !strings.HasPrefix(k1, "frame:") {
		t.Errorf("FrameKey should start with frame:, got %s", k1)
	}
	if len(k1) != len("frame:")+64 {
		t.Errorf("FrameKey length = %d, want %d", len(k1), len("frame:")+64)
	}
	if k1 == k.FrameKey("otherscene", FrameKeyOpts{Index: "1", Width: 900, Height: 800}) {
		t.Error("Different scene hashes should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "site-a:")
	key := scoped.FrameKey("h", FrameKeyOpts{Index: "1"})
	if !strings.HasPrefix(key, "site-a:frame:") {
		t.Errorf("ScopedKeyer FrameKey should be prefixed: %s", key)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	want := "prefix:" + NewDefaultKeyer().FrameKey("h", FrameKeyOpts{})
	if got := scoped.FrameKey("h", FrameKeyOpts{}); got != want {
		t.Errorf("FrameKey with nil inner = %s, want %s", got, want)
	}
}
