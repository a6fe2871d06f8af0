package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/brainviz/execsummary/pkg/errors"
	"github.com/brainviz/execsummary/pkg/report"
)

// serveCommand creates the "serve" command, a read-only preview server for
// a report directory.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		dir  string
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a report directory for preview",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				return errors.New(errors.ErrCodeDirectoryNotFound, "%s is not a directory", dir)
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           newPreviewRouter(dir, logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errc <- err
				}
				close(errc)
			}()

			printSuccess("Serving %s", dir)
			printDetail("http://%s", displayAddr(addr))

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down preview server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("preview server shutdown", "err", err)
			}
			return ctx.Err()
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "report directory (executivesummary)")
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	_ = cmd.MarkFlagDirname("dir")

	return cmd
}

// newPreviewRouter mounts dir read-only plus a health check and the parsed
// manifest.
func newPreviewRouter(dir string, logger *log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/api/manifest", func(w http.ResponseWriter, _ *http.Request) {
		m, err := report.ReadManifest(filepath.Join(dir, report.ManifestFile))
		if err != nil {
			http.Error(w, "manifest not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(m)
	})

	files := http.FileServer(http.Dir(dir))
	r.Method(http.MethodGet, "/*", files)
	r.Method(http.MethodHead, "/*", files)

	return r
}

// requestLogger logs one line per request through the charm logger.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
