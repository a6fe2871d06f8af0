package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/brainviz/execsummary/pkg/cache"
	"github.com/brainviz/execsummary/pkg/errors"
	"github.com/brainviz/execsummary/pkg/observability"
	"github.com/brainviz/execsummary/pkg/scene"
)

// frameJob is one sub-scene render into a file relative to the images
// directory.
type frameJob struct {
	ref  string
	file string
}

// renderAll renders jobs with at most Pipeline.Workers (at least one)
// concurrent renderer calls and returns once every job has finished. Each job writes a distinct
// file. Failed jobs are recorded and do not stop the others; with each set,
// successful jobs are recorded too. The error is non-nil only on
// cancellation.
func (x *run) renderAll(ctx context.Context, stage string, sc *scene.Scratch, key string, jobs []frameJob, each bool) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, x.Config.Pipeline.Workers))

	var rendered atomic.Int64
	for _, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cached, err := x.renderFrame(gctx, sc, key, job)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				x.fail(stage, job.file, err)
				return nil
			}
			rendered.Add(1)
			if each {
				status := StatusOK
				if cached {
					status = StatusCached
				}
				x.res.add(Artifact{Stage: stage, File: job.file, Status: status})
			}
			return nil
		})
	}

	err := g.Wait()
	return int(rendered.Load()), err
}

// renderFrame renders one sub-scene, serving it from the frame cache when
// the same scene, inputs and geometry were rendered before. It reports
// whether the frame came from the cache. Cache errors never fail a frame.
func (x *run) renderFrame(ctx context.Context, sc *scene.Scratch, key string, job frameJob) (bool, error) {
	dest := filepath.Join(x.tree.Images, job.file)
	w, h := x.Config.Render.Width, x.Config.Render.Height
	cacheKey := x.Keyer.FrameKey(key, cache.FrameKeyOpts{Index: job.ref, Width: w, Height: h})

	if data, hit, err := x.Cache.Get(ctx, cacheKey); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "frame")
		if err := writeFileAtomic(dest, data); err == nil {
			return true, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "frame")

	if err := x.Tools.ShowScene(ctx, sc.Path, job.ref, dest, w, h); err != nil {
		_ = os.Remove(dest)
		return false, err
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeToolFailed, err, "renderer wrote no image for scene %s", job.ref)
	}
	if err := x.Cache.Set(ctx, cacheKey, data, cache.TTLFrame); err != nil {
		x.log.Debug("frame cache write failed", "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "frame", len(data))
	}
	return false, nil
}

// sceneKey identifies a resolved scene together with the current state of
// the files it references, so that regenerated inputs at the same path do
// not reuse stale frames.
func sceneKey(r *scene.Resolved, tokens map[string]string) string {
	paths := make([]string, 0, len(tokens))
	for _, p := range tokens {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	b.WriteString(r.Hash())
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil {
			fmt.Fprintf(&b, "|%s:%d:%d", p, info.Size(), info.ModTime().UnixNano())
		} else {
			fmt.Fprintf(&b, "|%s:missing", p)
		}
	}
	return cache.Hash([]byte(b.String()))
}

// slicesRow renders the default slice row of base with an optional
// outline into file. slicesdir runs in a private directory under the
// scratch directory, so concurrent or repeated calls never share output.
func (x *run) slicesRow(ctx context.Context, stage, base, outline, file string) {
	if ctx.Err() != nil {
		return
	}
	x.record(stage, file, x.slicesRowTo(ctx, base, outline, filepath.Join(x.tree.Images, file)))
}

func (x *run) slicesRowTo(ctx context.Context, base, outline, dest string) error {
	work, err := os.MkdirTemp(x.tree.Work, "slicesdir-")
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotWritable, err, "create slicesdir work directory")
	}
	defer os.RemoveAll(work)

	png, err := x.Tools.SlicesRow(ctx, base, outline, work)
	if err != nil {
		return err
	}
	if err := os.Rename(png, dest); err != nil {
		return errors.Wrap(errors.ErrCodeNotWritable, err, "move %s", png)
	}
	return nil
}

func (x *run) checkResolved(r *scene.Resolved, flavor scene.Flavor, tmplPath string) {
	if left := r.Unresolved(flavor, scene.Tokens(flavor)); len(left) > 0 {
		x.log.Warn("template tokens left unresolved", "template", tmplPath, "tokens", left)
	}
}

func (x *run) warnMissingSurfaces() {
	for _, s := range x.in.surfaces() {
		if !exists(s) {
			x.log.Warn("surface not found; scene will render without it", "path", s)
		}
	}
}

func (x *run) removeScratch(sc *scene.Scratch) {
	if err := sc.Remove(); err != nil {
		x.log.Warn("cannot remove scratch scene", "path", sc.Path, "err", err)
	}
}

// writeFileAtomic writes data via a temp file and rename, so a reader never
// sees a partial image.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".frame-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotWritable, err, "create %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
