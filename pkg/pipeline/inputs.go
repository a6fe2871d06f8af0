package pipeline

import (
	"path/filepath"
	"sort"
)

// inputs are the derivative files a run may read. Every path is
// provisional: consumers check existence before use.
type inputs struct {
	T1, T2           string // whole-head restored images
	T1Brain, T2Brain string // brain-extracted images
	RWhite, RPial    string
	LWhite, LPial    string
	SubcortSub       string // subject ROIs in atlas space
	SubcortAtl       string // atlas ROIs
	Results          string // per-task results
}

func resolveInputs(root, subject string) inputs {
	mni := filepath.Join(root, "MNINonLinear")
	surf := func(hemi, kind string) string {
		return filepath.Join(mni, "fsaverage_LR32k", subject+"."+hemi+"."+kind+".32k_fs_LR.surf.gii")
	}
	rois := filepath.Join(mni, "ROIs")

	return inputs{
		T1:         filepath.Join(mni, "T1w_restore.nii.gz"),
		T2:         filepath.Join(mni, "T2w_restore.nii.gz"),
		T1Brain:    filepath.Join(mni, "T1w_restore_brain.nii.gz"),
		T2Brain:    filepath.Join(mni, "T2w_restore_brain.nii.gz"),
		RWhite:     surf("R", "white"),
		RPial:      surf("R", "pial"),
		LWhite:     surf("L", "white"),
		LPial:      surf("L", "pial"),
		SubcortSub: filepath.Join(rois, "sub2atl_ROI.2.nii.gz"),
		SubcortAtl: filepath.Join(rois, "Atlas_ROIs.2.nii.gz"),
		Results:    filepath.Join(mni, "Results"),
	}
}

func (in inputs) surfaces() []string {
	return []string{in.RPial, in.LPial, in.RWhite, in.LWhite}
}

// taskDirs returns the task result directories in sorted order.
func (in inputs) taskDirs() []string {
	matches, _ := filepath.Glob(filepath.Join(in.Results, "*task-*"))
	sort.Strings(matches)

	var dirs []string
	for _, m := range matches {
		if isDir(m) {
			dirs = append(dirs, m)
		}
	}
	return dirs
}

// globSorted returns the sorted matches of pattern, ignoring bad patterns.
func globSorted(pattern string) []string {
	matches, _ := filepath.Glob(pattern)
	sort.Strings(matches)
	return matches
}
