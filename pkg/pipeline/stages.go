package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brainviz/execsummary/pkg/errors"
	"github.com/brainviz/execsummary/pkg/mosaic"
	"github.com/brainviz/execsummary/pkg/observability"
	"github.com/brainviz/execsummary/pkg/report"
	"github.com/brainviz/execsummary/pkg/scene"
	"github.com/brainviz/execsummary/pkg/tools"
)

// Scratch scene files, removed once their artifacts are rendered.
const (
	pngsScene = "pngs_scene.scene"
	t1Scene   = "t1_bs_scene.scene"
	t2Scene   = "t2_bs_scene.scene"
)

// =============================================================================
// Stage 2: Contrast
// =============================================================================

func (x *run) detectContrast(ctx context.Context) {
	x.res.HasT2 = exists(x.in.T2)
	if !x.res.HasT2 {
		x.log.Warn("t2 not found; using t1", "path", x.in.T2)
	}
	if !exists(x.in.T2Brain) {
		x.log.Warn("t2 brain not found", "path", x.in.T2Brain)
	}
}

// =============================================================================
// Stage 1: Atlas
// =============================================================================

func (x *run) atlas(ctx context.Context) error {
	atlas := x.opts.Atlas
	if atlas == "" {
		atlas = x.Config.DefaultAtlasPath()
		x.log.Info("use default atlas", "path", atlas)
	}

	inT1 := report.DescFile(x.prefix, report.KindAtlasInT1w)
	inAtlas := report.DescFile(x.prefix, report.KindT1wInAtlas)

	for _, need := range []string{atlas, x.in.T1Brain} {
		if !exists(need) {
			x.skip(ctx, StageAtlas, inT1, need, "cannot create atlas-in-t1")
			x.skip(ctx, StageAtlas, inAtlas, need, "cannot create t1-in-atlas")
			return nil
		}
	}

	x.log.Info("register atlas", "t1", filepath.Base(x.in.T1Brain), "atlas", atlas)
	x.slicesRow(ctx, StageAtlas, x.in.T1Brain, atlas, inT1)
	x.slicesRow(ctx, StageAtlas, atlas, x.in.T1Brain, inAtlas)
	return ctx.Err()
}

// =============================================================================
// Stage 3: Anatomical Views
// =============================================================================

func (x *run) views(ctx context.Context) error {
	catalog := report.Catalog(x.res.HasT2)

	if !x.res.HasT2 {
		observability.Stage().OnStageSkip(ctx, StageViews, x.in.T2)
		for _, v := range report.Catalog(true) {
			if strings.HasPrefix(v.Name, report.T2+"-") {
				x.res.add(Artifact{Stage: StageViews, File: report.ViewFile(x.prefix, v.Name), Status: StatusSkipped, Missing: x.in.T2})
			}
		}
	}

	tmplPath := x.Config.PNGsTemplatePath()
	for _, need := range []string{x.in.T1, tmplPath} {
		if !exists(need) {
			x.skip(ctx, StageViews, "", need, "cannot create anatomical views")
			return nil
		}
	}
	tmpl, err := scene.Load(tmplPath)
	if err != nil {
		x.fail(StageViews, "", err)
		return nil
	}

	t2 := x.in.T1
	if x.res.HasT2 {
		t2 = x.in.T2
	}
	tokens := map[string]string{
		scene.T1Img:  x.in.T1,
		scene.T2Img:  t2,
		scene.RPial:  x.in.RPial,
		scene.LPial:  x.in.LPial,
		scene.RWhite: x.in.RWhite,
		scene.LWhite: x.in.LWhite,
	}
	x.warnMissingSurfaces()

	resolved := tmpl.Resolve(scene.PNGs, tokens)
	x.checkResolved(resolved, scene.PNGs, tmplPath)

	sc, err := scene.Persist(resolved, x.tree.ScratchFile(pngsScene))
	if err != nil {
		x.fail(StageViews, "", err)
		return nil
	}
	defer x.removeScratch(sc)

	jobs := make([]frameJob, len(catalog))
	for i, v := range catalog {
		jobs[i] = frameJob{ref: tools.Ordinal(v.Ordinal), file: report.ViewFile(x.prefix, v.Name)}
	}
	_, err = x.renderAll(ctx, StageViews, sc, sceneKey(resolved, tokens), jobs, true)
	return err
}

// =============================================================================
// Stage 4: Brainsprite
// =============================================================================

func (x *run) brainsprite(ctx context.Context) error {
	if x.opts.SkipSprite {
		x.log.Info("skip brainsprite processing per user request")
		return nil
	}

	tmplPath := x.Config.BrainspriteTemplatePath()
	if !exists(tmplPath) {
		x.skip(ctx, StageBrainsprite, "", tmplPath, "cannot perform processing needed for brainsprite")
		return nil
	}
	tmpl, err := scene.Load(tmplPath)
	if err != nil {
		x.fail(StageBrainsprite, "", err)
		return nil
	}

	type contrast struct{ name, image, scratch string }
	contrasts := []contrast{{report.T1, x.in.T1, t1Scene}}
	if x.res.HasT2 {
		contrasts = append(contrasts, contrast{report.T2, x.in.T2, t2Scene})
	}

	for _, c := range contrasts {
		if !exists(c.image) {
			x.skip(ctx, StageBrainsprite, report.FramesDir(c.name), c.image, "cannot create brainsprite frames")
			continue
		}
		if err := x.frameSequence(ctx, tmpl, c.name, c.image, c.scratch); err != nil {
			return err
		}
	}
	return nil
}

func (x *run) frameSequence(ctx context.Context, tmpl *scene.Template, contrast, image, scratch string) error {
	dir := report.FramesDir(contrast)
	tokens := map[string]string{
		scene.TxImg:    image,
		scene.RPialBS:  x.in.RPial,
		scene.LPialBS:  x.in.LPial,
		scene.RWhiteBS: x.in.RWhite,
		scene.LWhiteBS: x.in.LWhite,
	}
	resolved := tmpl.Resolve(scene.Brainsprite, tokens)
	x.checkResolved(resolved, scene.Brainsprite, tmpl.Path)

	n := resolved.CountFrames(x.Config.Render.FrameMarker)
	if n == 0 {
		x.fail(StageBrainsprite, dir, errors.New(errors.ErrCodeEmptySequence,
			"no %q markers in %s", x.Config.Render.FrameMarker, tmpl.Path))
		return nil
	}

	if err := os.MkdirAll(x.tree.FramesDir(contrast), 0755); err != nil {
		x.fail(StageBrainsprite, dir, err)
		return nil
	}
	sc, err := scene.Persist(resolved, x.tree.ScratchFile(scratch))
	if err != nil {
		x.fail(StageBrainsprite, dir, err)
		return nil
	}
	defer x.removeScratch(sc)

	jobs := make([]frameJob, n)
	for i := range jobs {
		jobs[i] = frameJob{
			ref:  tools.Ordinal(i + 1),
			file: filepath.Join(dir, report.FrameFile(contrast, i)),
		}
	}

	x.log.Info("render brainsprite frames", "contrast", contrast, "frames", n)
	rendered, err := x.renderAll(ctx, StageBrainsprite, sc, sceneKey(resolved, tokens), jobs, false)
	if err != nil {
		return err
	}
	if rendered < n {
		// A gap would shift every later frame to an earlier grid cell, so
		// the sequence is dropped and no mosaic is built from it.
		if err := os.RemoveAll(x.tree.FramesDir(contrast)); err != nil {
			x.log.Warn("cannot remove incomplete frames", "path", dir, "err", err)
		}
		x.fail(StageBrainsprite, dir, errors.New(errors.ErrCodeIncompleteSequence,
			"%d of %d %s frames rendered", rendered, n, contrast))
		return nil
	}
	x.res.add(Artifact{Stage: StageBrainsprite, File: dir, Status: StatusOK, Frames: rendered})
	return nil
}

// =============================================================================
// Stage 5: Subcortical
// =============================================================================

func (x *run) subcortical(ctx context.Context) error {
	atlasInSub := report.DescFile(x.prefix, report.KindAtlasInSubcort)
	subInAtlas := report.DescFile(x.prefix, report.KindSubcortInAtlas)

	for _, need := range []string{x.in.SubcortSub, x.in.SubcortAtl} {
		if !exists(need) {
			x.skip(ctx, StageSubcortical, atlasInSub, need, "no subcorticals will be included")
			x.skip(ctx, StageSubcortical, subInAtlas, need, "no subcorticals will be included")
			return nil
		}
	}
	x.log.Info("create subcortical images")

	subTemp := x.tree.ScratchFile("subcort_sub.nii.gz")
	atlTemp := x.tree.ScratchFile("subcort_atl.nii.gz")
	binSub := x.tree.ScratchFile("bin_subcort_sub.nii.gz")
	binAtl := x.tree.ScratchFile("bin_subcort_atl.nii.gz")

	failBoth := func(err error) {
		x.fail(StageSubcortical, atlasInSub, err)
		x.fail(StageSubcortical, subInAtlas, err)
	}
	for _, cp := range [][2]string{{x.in.SubcortSub, subTemp}, {x.in.SubcortAtl, atlTemp}} {
		if err := copyFile(cp[0], cp[1]); err != nil {
			failBoth(err)
			return nil
		}
	}

	// slicer cannot outline low-intensity ROI volumes, so outlines come
	// from binarized copies.
	if err := x.Tools.Binarize(ctx, atlTemp, binAtl); err != nil {
		failBoth(err)
		return nil
	}
	if err := x.Tools.Binarize(ctx, subTemp, binSub); err != nil {
		failBoth(err)
		return nil
	}

	var atlPNGs, subPNGs []string
	var atlErr, subErr error
	counter := 0
	for _, axis := range x.Config.SubcorticalSlices() {
		for _, n := range axis.Slices {
			atlPNG := x.tree.ScratchFile(fmt.Sprintf("slice_atl_%d.png", counter))
			if err := x.Tools.Slice(ctx, subTemp, binAtl, axis.Axis, n, atlPNG); err != nil && atlErr == nil {
				atlErr = err
			}
			atlPNGs = append(atlPNGs, atlPNG)

			subPNG := x.tree.ScratchFile(fmt.Sprintf("slice_sub_%d.png", counter))
			if err := x.Tools.Slice(ctx, atlTemp, binSub, axis.Axis, n, subPNG); err != nil && subErr == nil {
				subErr = err
			}
			subPNGs = append(subPNGs, subPNG)
			counter++
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	x.strip(StageSubcortical, atlPNGs, atlasInSub, atlErr)
	x.strip(StageSubcortical, subPNGs, subInAtlas, subErr)
	return nil
}

// strip appends slice images into one composite. A strip with a missing
// slice is not written, since its columns would no longer line up with the
// slice table.
func (x *run) strip(stage string, pngs []string, file string, sliceErr error) {
	if sliceErr != nil {
		x.fail(stage, file, sliceErr)
		return
	}
	x.record(stage, file, mosaic.AppendHorizontal(pngs, filepath.Join(x.tree.Images, file)))
}

// =============================================================================
// Stage 6: Tasks
// =============================================================================

// taskPair is one contrast's pair of comparisons against a task image.
type taskPair struct {
	contrast  string
	brain     string // brain image in anatomical space
	resampled string // brain resampled into the task grid
	inTask    string // kind with the task as base
	taskIn    string // kind with the resampled brain as base
}

func (x *run) tasks(ctx context.Context) error {
	dirs := x.in.taskDirs()
	if len(dirs) == 0 {
		x.log.Info("no task results", "path", x.in.Results)
		return nil
	}

	t1Resampled := x.tree.ScratchFile("T1w_restore_brain.2.nii.gz")
	t2Resampled := x.tree.ScratchFile("T2w_restore_brain.2.nii.gz")

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		task := filepath.Base(dir)
		x.res.Tasks = append(x.res.Tasks, task)
		x.log.Info("make images for task", "task", task)

		taskImg := filepath.Join(dir, task+".nii.gz")
		pairs := []taskPair{{report.T1, x.in.T1Brain, t1Resampled, report.KindT1InTask, report.KindTaskInT1}}
		if x.res.HasT2 {
			pairs = append(pairs, taskPair{report.T2, x.in.T2Brain, t2Resampled, report.KindT2InTask, report.KindTaskInT2})
		}

		for _, p := range pairs {
			inTask := report.TaskDescFile(x.opts.Subject, task, p.inTask)
			taskIn := report.TaskDescFile(x.opts.Subject, task, p.taskIn)

			missing := ""
			for _, need := range []string{taskImg, p.brain} {
				if missing == "" && !exists(need) {
					missing = need
				}
			}
			if missing != "" {
				x.skip(ctx, StageTasks, inTask, missing, "cannot create task comparison")
				x.skip(ctx, StageTasks, taskIn, missing, "cannot create task comparison")
				continue
			}

			x.log.Debug("resample brain into task space", "contrast", p.contrast, "task", task)
			// A failed resample must not leave the previous task's volume.
			_ = os.Remove(p.resampled)
			if err := x.Tools.Resample(ctx, p.brain, taskImg, true, p.resampled); err != nil {
				x.fail(StageTasks, inTask, err)
				x.fail(StageTasks, taskIn, err)
				continue
			}

			x.slicesRow(ctx, StageTasks, taskImg, p.resampled, inTask)
			x.slicesRow(ctx, StageTasks, p.resampled, taskImg, taskIn)
		}
	}
	return ctx.Err()
}

// =============================================================================
// Stage 7: Functional
// =============================================================================

func (x *run) functional(ctx context.Context) error {
	if x.opts.FuncDir == "" {
		x.log.Info("no func files; neither bold nor sbref will be shown")
		return nil
	}
	if !isDir(x.opts.FuncDir) {
		x.skip(ctx, StageFunctional, "", x.opts.FuncDir, "no func files; neither bold nor sbref will be shown")
		return nil
	}

	for _, bold := range globSorted(filepath.Join(x.opts.FuncDir, "*task-*_bold*.nii*")) {
		x.preview(ctx, bold, report.PreviewFile(bold))
	}

	sbrefs := globSorted(filepath.Join(x.opts.FuncDir, "*task-*_sbref*.nii*"))
	if len(sbrefs) > 0 {
		for _, sbref := range sbrefs {
			x.preview(ctx, sbref, report.PreviewFile(sbref))
		}
		return ctx.Err()
	}

	scouts := globSorted(filepath.Join(x.opts.Root, "task-*", "Scout_orig.nii.gz"))
	if len(scouts) == 0 {
		x.log.Warn("no sbref or scout references", "path", x.opts.FuncDir)
	}
	for _, scout := range scouts {
		task := filepath.Base(filepath.Dir(scout))
		x.preview(ctx, scout, report.RefFile(x.opts.Subject, task))
	}
	return ctx.Err()
}

func (x *run) preview(ctx context.Context, volume, file string) {
	if ctx.Err() != nil {
		return
	}
	dest := filepath.Join(x.tree.Images, file)
	err := x.Tools.Preview(ctx, volume, dest)
	if err != nil {
		_ = os.Remove(dest)
	}
	x.record(StageFunctional, file, err)
}

// =============================================================================
// Mosaics
// =============================================================================

func (x *run) mosaics(ctx context.Context) error {
	for _, contrast := range []string{report.T1, report.T2} {
		file := report.MosaicFile(contrast)
		dir := x.tree.FramesDir(contrast)
		if !isDir(dir) {
			x.log.Info("no brainsprite frames", "path", dir)
			continue
		}

		res, err := mosaic.Assemble(ctx, dir, filepath.Join(x.tree.Images, file), mosaic.Options{
			Tile:    x.Config.Mosaic.Tile,
			Quality: x.Config.Mosaic.Quality,
		})
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, errors.ErrCodeEmptySequence):
			x.skip(ctx, StageMosaic, file, dir, "no frames for mosaic")
			continue
		case err != nil:
			x.fail(StageMosaic, file, err)
			continue
		}

		if res.Placed < res.Frames {
			x.log.Info("frames beyond the grid are not placed", "contrast", contrast, "frames", res.Frames, "placed", res.Placed)
		}
		x.log.Info("made mosaic", "file", file, "side", res.Side, "size", res.Size)
		x.res.add(Artifact{Stage: StageMosaic, File: file, Status: StatusOK, Frames: res.Placed})
	}
	return nil
}

// =============================================================================
// Layout Hand-off
// =============================================================================

func (x *run) handOff(ctx context.Context) error {
	err := report.Stage(ctx, x.Exec, x.Config.Layout, x.tree, x.res.Manifest)
	switch {
	case err == nil:
		x.res.add(Artifact{Stage: StageLayout, File: report.ManifestFile, Status: StatusOK})
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, errors.ErrCodeNotWritable):
		return err
	}
	x.fail(StageLayout, x.Config.Layout.Command, err)
	return nil
}
