// Package toolstest provides a recording fake for the tools package.
package toolstest

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/brainviz/execsummary/pkg/tools"
)

// Call is one recorded invocation.
type Call struct {
	Method string
	Args   []string
	Out    string
}

// Recorder implements [tools.Toolkit] without running anything. Every call
// is recorded and its destination gets a small placeholder file, so later
// stages find the files they expect. It is safe for concurrent use.
type Recorder struct {
	// Fail, when set, is consulted before each call; a non-nil error is
	// returned and no output is written.
	Fail func(Call) error

	// Size is the edge length of written PNG placeholders. Zero means 8.
	Size int

	mu    sync.Mutex
	calls []Call
}

var _ tools.Toolkit = (*Recorder)(nil)

// Calls returns a copy of the recorded calls in invocation order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// CallsTo returns the recorded calls of one method.
func (r *Recorder) CallsTo(method string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

func (r *Recorder) ShowScene(_ context.Context, sceneFile, ref, out string, width, height int) error {
	return r.record(Call{
		Method: "ShowScene",
		Args:   []string{sceneFile, ref, strconv.Itoa(width), strconv.Itoa(height)},
		Out:    out,
	})
}

func (r *Recorder) SlicesRow(_ context.Context, base, outline, workDir string) (string, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return "", err
	}
	out := tools.SlicesDirOutput(workDir, abs)
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return "", err
	}
	if err := r.record(Call{Method: "SlicesRow", Args: []string{base, outline, workDir}, Out: out}); err != nil {
		return "", err
	}
	return out, nil
}

func (r *Recorder) Slice(_ context.Context, in, edges, axis string, slice int, out string) error {
	return r.record(Call{
		Method: "Slice",
		Args:   []string{in, edges, axis, strconv.Itoa(slice)},
		Out:    out,
	})
}

func (r *Recorder) Preview(_ context.Context, in, out string) error {
	return r.record(Call{Method: "Preview", Args: []string{in}, Out: out})
}

func (r *Recorder) Resample(_ context.Context, moving, reference string, applyExisting bool, out string) error {
	return r.record(Call{
		Method: "Resample",
		Args:   []string{moving, reference, strconv.FormatBool(applyExisting)},
		Out:    out,
	})
}

func (r *Recorder) Binarize(_ context.Context, in, out string) error {
	return r.record(Call{Method: "Binarize", Args: []string{in}, Out: out})
}

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	fail := r.Fail
	r.mu.Unlock()

	if fail != nil {
		if err := fail(c); err != nil {
			return err
		}
	}
	return r.write(c.Out)
}

func (r *Recorder) write(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	format, err := imaging.FormatFromFilename(path)
	if err != nil || !isRaster(path) {
		return os.WriteFile(path, []byte("placeholder volume\n"), 0644)
	}

	size := r.Size
	if size == 0 {
		size = 8
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	img := imaging.New(size, size, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
	if err := imaging.Encode(f, img, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func isRaster(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	}
	return false
}
