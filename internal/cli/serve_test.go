package cli

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainviz/execsummary/pkg/report"
)

func TestPreviewRouter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "img"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "img", "sub-01_T1_mosaic.jpg"), []byte("jpeg"), 0644))

	srv := httptest.NewServer(newPreviewRouter(dir, newLogger(io.Discard, LogDebug)))
	defer srv.Close()

	get := func(path string) (int, string) {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	status, body := get("/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body)

	status, body = get("/img/sub-01_T1_mosaic.jpg")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "jpeg", body)

	status, _ = get("/api/manifest")
	assert.Equal(t, http.StatusNotFound, status)

	m := report.NewManifest("run-1", "01", "NONE")
	require.NoError(t, m.Collect(filepath.Join(dir, "img")))
	require.NoError(t, m.Write(filepath.Join(dir, report.ManifestFile)))

	status, body = get("/api/manifest")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"run_id":"run-1"`)
	assert.Contains(t, body, `"kind":"mosaic"`)
}

func TestDisplayAddr(t *testing.T) {
	assert.Equal(t, "localhost:8080", displayAddr(":8080"))
	assert.Equal(t, "127.0.0.1:9000", displayAddr("127.0.0.1:9000"))
}
