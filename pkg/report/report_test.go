package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainviz/execsummary/pkg/config"
	"github.com/brainviz/execsummary/pkg/outtree"
	"github.com/brainviz/execsummary/pkg/tools"
)

func TestCatalog(t *testing.T) {
	full := Catalog(true)
	require.Len(t, full, 18)
	assert.Equal(t, View{Name: "T1-Axial-InferiorTemporal-Cerebellum", Ordinal: 1}, full[0])
	assert.Equal(t, View{Name: "T2-Axial-InferiorTemporal-Cerebellum", Ordinal: 2}, full[1])
	assert.Equal(t, View{Name: "T2-Sagittal-Insula-Temporal-HippocampalSulcus", Ordinal: 18}, full[17])

	t1 := Catalog(false)
	require.Len(t, t1, 9)
	for i, v := range t1 {
		assert.Equal(t, i+1, v.Ordinal)
		assert.Equal(t, full[2*i].Name, v.Name, "every second entry of the full catalog")
	}
}

func TestNames(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{Prefix("01", ""), "sub-01"},
		{Prefix("01", "NONE"), "sub-01"},
		{Prefix("01", "baseline"), "sub-01_ses-baseline"},
		{ViewFile("sub-01", "T1-Axial-SuperiorFrontal"), "sub-01_T1-Axial-SuperiorFrontal.png"},
		{DescFile("sub-01_ses-a", KindAtlasInT1w), "sub-01_ses-a_desc-AtlasInT1w.gif"},
		{TaskDescFile("01", "task-rest01", KindTaskInT2), "sub-01_task-rest01_desc-TaskInT2.gif"},
		{MosaicFile(T1), "T1_mosaic.jpg"},
		{FramesDir(T2), "T2_pngs"},
		{FrameFile(T1, 0), "P_T1_frame_0.png"},
		{FrameFile(T2, 168), "P_T2_frame_168.png"},
		{RefFile("01", "task-rest01"), "sub-01_task-rest01_ref.png"},
		{PreviewFile("/bids/func/sub-01_task-rest_bold.nii.gz"), "sub-01_task-rest_bold.png"},
		{PreviewFile("sub-01_task-rest_sbref.nii"), "sub-01_task-rest_sbref.png"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := map[string]string{
		"sub-01_T1-Axial-SuperiorFrontal.png":  ArtifactView,
		"sub-01_desc-AtlasInT1w.gif":           ArtifactRegistration,
		"sub-01_task-rest01_desc-T1InTask.gif": ArtifactTask,
		"T1_mosaic.jpg":                        ArtifactMosaic,
		"T1_pngs/P_T1_frame_3.png":             ArtifactFrame,
		"sub-01_task-rest01_ref.png":           ArtifactReference,
		"sub-01_task-rest_run-1_bold.png":      ArtifactPreview,
	}
	for name, want := range tests {
		if got := Classify(filepath.FromSlash(name)); got != want {
			t.Errorf("Classify(%q) = %q, want %q", name, got, want)
		}
	}
}

type recordingRunner struct{ cmds []tools.Command }

func (r *recordingRunner) Run(_ context.Context, cmd tools.Command) error {
	r.cmds = append(r.cmds, cmd)
	return nil
}

func prepared(t *testing.T) *outtree.Tree {
	t.Helper()
	tree, err := outtree.Prepare(t.TempDir(), "", false)
	require.NoError(t, err)

	files := []string{
		"T1_pngs/P_T1_frame_10.png",
		"T1_pngs/P_T1_frame_2.png",
		"T1_mosaic.jpg",
		"sub-01_desc-AtlasInT1w.gif",
	}
	for _, f := range files {
		path := filepath.Join(tree.Images, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("data"), 0644))
	}
	return tree
}

func TestStageWritesManifest(t *testing.T) {
	tree := prepared(t)
	runner := &recordingRunner{}

	m := NewManifest("run-1", "01", "NONE")
	require.NoError(t, Stage(context.Background(), runner, config.Layout{}, tree, m))
	assert.Empty(t, runner.cmds, "no layout command configured")

	got, err := ReadManifest(filepath.Join(tree.Report, ManifestFile))
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "", got.Session)

	// Natural order compares text case-insensitively, so "sub-" precedes "T1".
	want := []Artifact{
		{File: "sub-01_desc-AtlasInT1w.gif", Kind: ArtifactRegistration, Size: 4},
		{File: "T1_mosaic.jpg", Kind: ArtifactMosaic, Size: 4},
		{File: "T1_pngs/P_T1_frame_2.png", Kind: ArtifactFrame, Size: 4},
		{File: "T1_pngs/P_T1_frame_10.png", Kind: ArtifactFrame, Size: 4},
	}
	if diff := cmp.Diff(want, got.Artifacts); diff != "" {
		t.Errorf("artifacts mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, got.Count(ArtifactFrame))
}

func TestStageRunsLayoutCommand(t *testing.T) {
	tree := prepared(t)
	runner := &recordingRunner{}
	layout := config.Layout{Command: "layout_builder", Args: []string{"--verbose"}}

	m := NewManifest("", "01", "baseline")
	require.NoError(t, Stage(context.Background(), runner, layout, tree, m))
	assert.NotEmpty(t, m.RunID)

	require.Len(t, runner.cmds, 1)
	want := tools.Command{
		Name: "layout_builder",
		Args: []string{
			"--verbose",
			"--files-path", tree.Root,
			"--summary-path", tree.Summary,
			"--html-path", tree.Report,
			"--images-path", tree.Images,
			"--subject-id", "01",
			"--session-id", "baseline",
		},
	}
	if diff := cmp.Diff(want, runner.cmds[0]); diff != "" {
		t.Errorf("layout command mismatch (-want +got):\n%s", diff)
	}
}

func TestLayoutCommandDoesNotAliasArgs(t *testing.T) {
	layout := config.Layout{Command: "x", Args: make([]string, 1, 10)}
	tree := &outtree.Tree{}
	a := LayoutCommand(layout, tree, &Manifest{Subject: "a"})
	b := LayoutCommand(layout, tree, &Manifest{Subject: "b"})
	assert.Equal(t, "a", a.Args[len(a.Args)-1])
	assert.Equal(t, "b", b.Args[len(b.Args)-1])
}
