// Package outtree prepares the executive summary output directories.
//
// For a derivatives root and an optional summary subdirectory the tree is:
//
//	{root}[/{summary}]/                 summary root, must already exist
//	    executivesummary/               report directory
//	        img/                        images, always a direct child
//	        temp_files/                 scratch for tool runs
//
// The layout generator references images relative to the report directory,
// so img must stay one level below it.
package outtree

import (
	"os"
	"path/filepath"

	"github.com/brainviz/execsummary/pkg/errors"
)

// Directory names inside the summary root.
const (
	ReportDirName = "executivesummary"
	ImagesDirName = "img"
	WorkDirName   = "temp_files"
)

// Tree holds the resolved output paths of one run.
type Tree struct {
	Root    string // derivatives root, read-only input
	Summary string // summary root
	Report  string // report directory
	Images  string // images directory, child of Report
	Work    string // scratch directory, child of Report
}

// Prepare resolves and creates the output tree.
//
// The summary root must exist; otherwise ErrCodeDirectoryNotFound is
// returned and nothing is created. Unless layoutOnly is set, an existing
// report directory is removed first so that no image from an earlier run
// survives. With layoutOnly nothing is removed and only missing directories
// are created. Failure to remove or create yields ErrCodeNotWritable.
// Either way a nil Tree means the run must stop.
func Prepare(root, summaryDir string, layoutOnly bool) (*Tree, error) {
	summary := root
	if !errors.IsUnset(summaryDir) {
		if err := errors.ValidateSubdir(summaryDir); err != nil {
			return nil, err
		}
		summary = filepath.Join(root, summaryDir)
	}

	info, err := os.Stat(summary)
	if err != nil || !info.IsDir() {
		return nil, errors.New(errors.ErrCodeDirectoryNotFound, "directory does not exist: %s", summary)
	}

	report := filepath.Join(summary, ReportDirName)
	t := &Tree{
		Root:    root,
		Summary: summary,
		Report:  report,
		Images:  filepath.Join(report, ImagesDirName),
		Work:    filepath.Join(report, WorkDirName),
	}

	if !layoutOnly {
		if err := os.RemoveAll(report); err != nil {
			return nil, errors.Wrap(errors.ErrCodeNotWritable, err, "remove previous report %s", report)
		}
	}

	dirs := []string{t.Report, t.Images}
	if !layoutOnly {
		dirs = append(dirs, t.Work)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeNotWritable, err, "create %s", dir)
		}
	}
	return t, nil
}

// FramesDir returns the brainsprite frame directory for a contrast such as
// "T1" inside the images directory.
func (t *Tree) FramesDir(contrast string) string {
	return filepath.Join(t.Images, contrast+"_pngs")
}

// ScratchFile returns a path inside the scratch directory.
func (t *Tree) ScratchFile(name string) string {
	return filepath.Join(t.Work, name)
}
