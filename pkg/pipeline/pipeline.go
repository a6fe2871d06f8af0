// Package pipeline produces the executive summary images for one
// subject/session and hands them to the page layout generator.
//
// # Architecture
//
// A run prepares the output tree, then executes these stages strictly in
// order, since later stages read files written by earlier ones:
//
//  1. Atlas: default slice rows of the T1 brain against the atlas
//  2. Contrast: detect the T2 image, falling back to T1
//  3. Views: the anatomical catalog from the anatomical scene template
//  4. Brainsprite: one frame sequence per contrast
//  5. Subcortical: slice strips of the subcortical ROIs
//  6. Tasks: per-task registration comparisons
//  7. Functional: previews of BIDS bold and sbref volumes
//
// followed by the brainsprite mosaics and the layout hand-off.
//
// Every stage gates on the presence of its inputs. A missing optional input
// skips only the artifacts that depend on it and is logged with the missing
// path. A failed tool call marks its artifact failed. Only an unusable
// output tree stops a run.
//
// # Usage
//
//	runner := pipeline.NewRunner(cfg, toolkit, execRunner, frameCache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Root:    "/data/sub-01/files",
//	    Subject: "01",
//	})
//	if err != nil {
//	    return err // fatal: missing root or unwritable output
//	}
//	for _, a := range result.Failed() {
//	    logger.Error("artifact failed", "file", a.File, "err", a.Err)
//	}
package pipeline

import (
	"os"

	"github.com/brainviz/execsummary/pkg/errors"
)

// =============================================================================
// Stage Names
// =============================================================================

const (
	StageTree        = "output-tree"
	StageAtlas       = "atlas"
	StageViews       = "anatomical-views"
	StageBrainsprite = "brainsprite"
	StageSubcortical = "subcortical"
	StageTasks       = "tasks"
	StageFunctional  = "functional"
	StageMosaic      = "mosaic"
	StageLayout      = "layout"
)

// =============================================================================
// Options - Per-Run Context
// =============================================================================

// Options identify one subject/session run. They do not change during the
// run and together decide which artifacts are produced.
type Options struct {
	Root       string // derivatives root ("files" directory)
	SummaryDir string // optional summary subdirectory, relative to Root
	Subject    string // participant label without "sub-"
	Session    string // optional session label without "ses-"
	Atlas      string // optional atlas; empty uses the configured default
	FuncDir    string // optional BIDS func directory
	LayoutOnly bool   // reuse existing images, only redo the hand-off
	SkipSprite bool   // skip brainsprite frames
	RunID      string // optional; generated when empty
}

// Normalize maps the literal NONE on optional fields to empty and checks
// the identifiers.
func (o *Options) Normalize() error {
	for _, f := range []*string{&o.SummaryDir, &o.Session, &o.Atlas, &o.FuncDir} {
		if errors.IsUnset(*f) {
			*f = ""
		}
	}

	if o.Root == "" {
		return errors.New(errors.ErrCodeInvalidInput, "output directory is required")
	}
	if err := errors.ValidateIdentifier("participant label", o.Subject); err != nil {
		return err
	}
	if o.Session != "" {
		if err := errors.ValidateIdentifier("session id", o.Session); err != nil {
			return err
		}
	}
	return nil
}

// exists reports whether path names an existing regular file or directory.
func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func isDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
