package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brainviz/execsummary/pkg/config"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirWithXDG(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", tmpDir)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	expected := filepath.Join(tmpDir, appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestFrameCacheDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", tmpDir)

	cfg := config.DefaultConfig()
	dir, err := frameCacheDir(cfg)
	if err != nil {
		t.Fatalf("frameCacheDir() error: %v", err)
	}
	if want := filepath.Join(tmpDir, appName, "frames"); dir != want {
		t.Errorf("frameCacheDir() = %q, want %q", dir, want)
	}

	cfg.Cache.Dir = "/shared/frames"
	dir, _ = frameCacheDir(cfg)
	if dir != "/shared/frames" {
		t.Errorf("frameCacheDir() = %q, want cache.dir", dir)
	}
}

func TestConfigDirWithXDG(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	dir, err := configDir()
	if err != nil {
		t.Fatalf("configDir() error: %v", err)
	}
	if want := filepath.Join(tmpDir, appName); dir != want {
		t.Errorf("configDir() = %q, want %q", dir, want)
	}
}

func TestResolveTemplateDir(t *testing.T) {
	abs := t.TempDir()
	if got := resolveTemplateDir(abs); got != abs {
		t.Errorf("absolute dir changed: %q", got)
	}
	if got := resolveTemplateDir(""); got != "" {
		t.Errorf("empty dir changed: %q", got)
	}

	exe, err := os.Executable()
	if err != nil {
		t.Skip("no executable path")
	}
	got := resolveTemplateDir("no-such-templates-dir")
	if want := filepath.Join(filepath.Dir(exe), "no-such-templates-dir"); got != want {
		t.Errorf("resolveTemplateDir() = %q, want %q", got, want)
	}
}

func TestClearDir(t *testing.T) {
	dir := t.TempDir()
	for _, rel := range []string{"ab/one.json", "ab/two.json", "cd/ef/three.json"} {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	n, err := clearDir(dir)
	if err != nil {
		t.Fatalf("clearDir() error: %v", err)
	}
	if n != 3 {
		t.Errorf("clearDir() removed %d files, want 3", n)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("clearDir() left %d entries", len(entries))
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("clearDir() removed the root: %v", err)
	}

	n, err = clearDir(filepath.Join(dir, "missing"))
	if err != nil || n != 0 {
		t.Errorf("clearDir(missing) = %d, %v", n, err)
	}
}
