package tools

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/brainviz/execsummary/pkg/config"
	"github.com/brainviz/execsummary/pkg/errors"
)

// SceneRenderer renders one sub-scene of a scene file. ref is either the
// 1-based ordinal of the sub-scene or its name.
type SceneRenderer interface {
	ShowScene(ctx context.Context, sceneFile, ref, out string, width, height int) error
}

// Slicer produces 2-D slice images from volumes.
type Slicer interface {
	// SlicesRow renders the default nine-slice row of base, with outline
	// drawn in red when non-empty. The tool runs inside workDir, which the
	// caller must not share with a concurrent call. The returned path is
	// the composed PNG inside workDir.
	SlicesRow(ctx context.Context, base, outline, workDir string) (string, error)

	// Slice renders a single labelled slice of in along axis (x, y or z),
	// with edges drawn as outline when non-empty.
	Slice(ctx context.Context, in, edges, axis string, slice int, out string) error

	// Preview renders the mid-sagittal, coronal and axial planes of in
	// into one image.
	Preview(ctx context.Context, in, out string) error
}

// Registrar resamples a moving volume into the space of a reference.
type Registrar interface {
	Resample(ctx context.Context, moving, reference string, applyExisting bool, out string) error
}

// Binarizer thresholds a volume to a 0/1 label volume.
type Binarizer interface {
	Binarize(ctx context.Context, in, out string) error
}

// Toolkit is every external capability the pipeline needs.
type Toolkit interface {
	SceneRenderer
	Slicer
	Registrar
	Binarizer
}

// Ordinal formats a 1-based sub-scene ordinal as a scene reference.
func Ordinal(i int) string { return strconv.Itoa(i) }

// Exec implements [Toolkit] with Connectome Workbench and FSL binaries.
type Exec struct {
	Runner Runner
	Names  config.Tools
}

// NewExec creates a toolkit that runs the binaries named in names.
func NewExec(runner Runner, names config.Tools) *Exec {
	return &Exec{Runner: runner, Names: names}
}

var _ Toolkit = (*Exec)(nil)

// ShowScene runs wb_command -show-scene.
func (e *Exec) ShowScene(ctx context.Context, sceneFile, ref, out string, width, height int) error {
	return e.Runner.Run(ctx, Command{
		Name: e.Names.WBCommand,
		Args: []string{
			"-show-scene", sceneFile, ref, out,
			strconv.Itoa(width), strconv.Itoa(height),
		},
	})
}

// SlicesRow runs slicesdir inside workDir. slicesdir writes into a
// "slicesdir" subdirectory of its working directory and names each PNG
// after the input path with separators flattened to underscores.
func (e *Exec) SlicesRow(ctx context.Context, base, outline, workDir string) (string, error) {
	base, err := filepath.Abs(base)
	if err != nil {
		return "", err
	}

	var args []string
	if outline != "" {
		if outline, err = filepath.Abs(outline); err != nil {
			return "", err
		}
		args = append(args, "-p", outline)
	}
	args = append(args, base)

	if err := e.Runner.Run(ctx, Command{Name: e.Names.SlicesDir, Args: args, Dir: workDir}); err != nil {
		return "", err
	}

	png := SlicesDirOutput(workDir, base)
	if _, err := os.Stat(png); err != nil {
		return "", errors.Wrap(errors.ErrCodeToolFailed, err, "%s produced no image for %s", e.Names.SlicesDir, base)
	}
	return png, nil
}

// Slice runs slicer -u -L -{axis} N.
func (e *Exec) Slice(ctx context.Context, in, edges, axis string, slice int, out string) error {
	switch axis {
	case "x", "y", "z":
	default:
		return errors.New(errors.ErrCodeInvalidInput, "invalid slice axis %q", axis)
	}

	args := []string{in}
	if edges != "" {
		args = append(args, edges)
	}
	args = append(args, "-u", "-L", "-"+axis, strconv.Itoa(slice), out)
	return e.Runner.Run(ctx, Command{Name: e.Names.Slicer, Args: args})
}

// Preview runs slicer -u -a.
func (e *Exec) Preview(ctx context.Context, in, out string) error {
	return e.Runner.Run(ctx, Command{
		Name: e.Names.Slicer,
		Args: []string{in, "-u", "-a", out},
	})
}

// Resample runs flirt. With applyExisting the identity transform is
// applied, so the volume is only resampled onto the reference grid.
func (e *Exec) Resample(ctx context.Context, moving, reference string, applyExisting bool, out string) error {
	args := []string{"-in", moving, "-ref", reference, "-out", out}
	if applyExisting {
		args = append(args, "-applyxfm")
	}
	return e.Runner.Run(ctx, Command{Name: e.Names.FLIRT, Args: args})
}

// Binarize runs fslmaths -bin.
func (e *Exec) Binarize(ctx context.Context, in, out string) error {
	return e.Runner.Run(ctx, Command{
		Name: e.Names.FSLMaths,
		Args: []string{in, "-bin", out},
	})
}

// Binaries lists the configured binaries in a stable order.
func Binaries(names config.Tools) []string {
	return []string{names.WBCommand, names.SlicesDir, names.Slicer, names.FLIRT, names.FSLMaths}
}

// SlicesDirOutput returns where slicesdir, run in workDir, writes the image
// for the volume at abs.
func SlicesDirOutput(workDir, abs string) string {
	name := strings.ReplaceAll(TrimNiftiExt(abs), string(filepath.Separator), "_")
	return filepath.Join(workDir, "slicesdir", name+".png")
}

// TrimNiftiExt removes a .nii.gz, .nii or .gz extension.
func TrimNiftiExt(path string) string {
	for _, ext := range []string{".nii.gz", ".nii", ".gz"} {
		if strings.HasSuffix(path, ext) {
			return strings.TrimSuffix(path, ext)
		}
	}
	return path
}
