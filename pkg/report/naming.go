// Package report owns the on-disk naming convention shared with the page
// layout generator, and the hand-off of a finished image directory to it.
//
// Every name produced here is read by the layout generator. Changing one
// breaks the report page.
package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/brainviz/execsummary/pkg/errors"
)

// Registration comparison kinds, used in desc- file names.
const (
	KindAtlasInT1w     = "AtlasInT1w"
	KindT1wInAtlas     = "T1wInAtlas"
	KindAtlasInSubcort = "AtlasInSubcort"
	KindSubcortInAtlas = "SubcortInAtlas"
	KindT1InTask       = "T1InTask"
	KindTaskInT1       = "TaskInT1"
	KindT2InTask       = "T2InTask"
	KindTaskInT2       = "TaskInT2"
)

// Contrasts.
const (
	T1 = "T1"
	T2 = "T2"
)

// AnatomicalViews are the named views of the anatomical scene template, in
// template order. Each is rendered once per contrast.
var AnatomicalViews = []string{
	"Axial-InferiorTemporal-Cerebellum",
	"Axial-BasalGangila-Putamen",
	"Axial-SuperiorFrontal",
	"Coronal-PosteriorParietal-Lingual",
	"Coronal-Caudate-Amygdala",
	"Coronal-OrbitoFrontal",
	"Sagittal-Insula-FrontoTemporal",
	"Sagittal-CorpusCallosum",
	"Sagittal-Insula-Temporal-HippocampalSulcus",
}

// View is one entry of the anatomical catalog.
type View struct {
	Name    string // e.g. "T2-Coronal-OrbitoFrontal"
	Ordinal int    // 1-based sub-scene in the resolved scene
}

// Catalog returns the anatomical views to render. With a T2 image the
// catalog alternates T1 and T2 for each view. Without one only the T1
// entries are kept and they are numbered consecutively, matching a scene
// resolved with the T1 image in both slots.
func Catalog(hasT2 bool) []View {
	var out []View
	for _, v := range AnatomicalViews {
		out = append(out, View{Name: T1 + "-" + v})
		if hasT2 {
			out = append(out, View{Name: T2 + "-" + v})
		}
	}
	for i := range out {
		out[i].Ordinal = i + 1
	}
	return out
}

// Prefix returns "sub-{subject}" or "sub-{subject}_ses-{session}".
func Prefix(subject, session string) string {
	p := "sub-" + subject
	if !errors.IsUnset(session) {
		p += "_ses-" + session
	}
	return p
}

// ViewFile names an anatomical view image.
func ViewFile(prefix, view string) string {
	return prefix + "_" + view + ".png"
}

// DescFile names a registration comparison composite.
func DescFile(prefix, kind string) string {
	return prefix + "_desc-" + kind + ".gif"
}

// TaskDescFile names a per-task comparison composite. Task images are
// keyed by subject only.
func TaskDescFile(subject, task, kind string) string {
	return fmt.Sprintf("sub-%s_%s_desc-%s.gif", subject, task, kind)
}

// MosaicFile names a brainsprite mosaic.
func MosaicFile(contrast string) string {
	return contrast + "_mosaic.jpg"
}

// FramesDir names the frame directory of a contrast.
func FramesDir(contrast string) string {
	return contrast + "_pngs"
}

// FrameFile names frame i (0-based) of a contrast.
func FrameFile(contrast string, i int) string {
	return fmt.Sprintf("P_%s_frame_%d.png", contrast, i)
}

// RefFile names the scout reference preview of a task.
func RefFile(subject, task string) string {
	return fmt.Sprintf("sub-%s_%s_ref.png", subject, task)
}

// PreviewFile names the preview of a functional volume: its base name with
// the NIfTI extension replaced by .png.
func PreviewFile(volume string) string {
	name := filepath.Base(volume)
	name = strings.ReplaceAll(name, ".nii.gz", ".png")
	return strings.ReplaceAll(name, ".nii", ".png")
}

// Artifact kinds recorded in the manifest.
const (
	ArtifactView         = "view"
	ArtifactRegistration = "registration"
	ArtifactTask         = "task"
	ArtifactMosaic       = "mosaic"
	ArtifactFrame        = "frame"
	ArtifactReference    = "reference"
	ArtifactPreview      = "preview"
)

// Classify returns the artifact kind of a path relative to the images
// directory.
func Classify(rel string) string {
	name := filepath.Base(rel)
	switch {
	case filepath.Dir(rel) != ".":
		return ArtifactFrame
	case strings.HasSuffix(name, "_mosaic.jpg"):
		return ArtifactMosaic
	case strings.HasSuffix(name, "_ref.png"):
		return ArtifactReference
	case strings.Contains(name, "_desc-") && strings.Contains(name, "_task-"):
		return ArtifactTask
	case strings.Contains(name, "_desc-"):
		return ArtifactRegistration
	case strings.Contains(name, "_task-"):
		return ArtifactPreview
	default:
		return ArtifactView
	}
}
