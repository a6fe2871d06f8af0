package report

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/brainviz/execsummary/pkg/config"
	"github.com/brainviz/execsummary/pkg/errors"
	"github.com/brainviz/execsummary/pkg/mosaic"
	"github.com/brainviz/execsummary/pkg/outtree"
	"github.com/brainviz/execsummary/pkg/tools"
)

// ManifestFile is written into the report directory.
const ManifestFile = "manifest.json"

// Artifact is one file in the images directory.
type Artifact struct {
	File string `json:"file"` // relative to the images directory, slash separated
	Kind string `json:"kind"`
	Size int64  `json:"size"`
}

// Manifest lists what a run produced for the layout generator.
type Manifest struct {
	RunID     string     `json:"run_id"`
	Subject   string     `json:"subject"`
	Session   string     `json:"session,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	Artifacts []Artifact `json:"artifacts"`
}

// NewManifest starts a manifest for one run. An unset runID gets a new
// random one.
func NewManifest(runID, subject, session string) *Manifest {
	if runID == "" {
		runID = uuid.NewString()
	}
	if errors.IsUnset(session) {
		session = ""
	}
	return &Manifest{
		RunID:     runID,
		Subject:   subject,
		Session:   session,
		CreatedAt: time.Now().UTC(),
	}
}

// Collect records every file below images in natural order.
func (m *Manifest) Collect(images string) error {
	var rels []string
	err := filepath.WalkDir(images, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(images, path)
			if err != nil {
				return err
			}
			rels = append(rels, rel)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "list images in %s", images)
	}
	mosaic.NaturalSort(rels)

	m.Artifacts = make([]Artifact, 0, len(rels))
	for _, rel := range rels {
		info, err := os.Stat(filepath.Join(images, rel))
		if err != nil {
			return err
		}
		m.Artifacts = append(m.Artifacts, Artifact{
			File: filepath.ToSlash(rel),
			Kind: Classify(rel),
			Size: info.Size(),
		})
	}
	return nil
}

// Count returns the number of artifacts of a kind.
func (m *Manifest) Count(kind string) int {
	n := 0
	for _, a := range m.Artifacts {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// Write saves the manifest as indented JSON.
func (m *Manifest) Write(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal manifest")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeNotWritable, err, "write %s", path)
	}
	return nil
}

// ReadManifest loads a manifest written by [Manifest.Write].
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", path)
	}
	return &m, nil
}

// Stage hands a finished tree to the layout generator. It collects and
// writes the manifest, then runs the configured layout command, if any.
func Stage(ctx context.Context, runner tools.Runner, layout config.Layout, tree *outtree.Tree, m *Manifest) error {
	if err := m.Collect(tree.Images); err != nil {
		return err
	}
	if err := m.Write(filepath.Join(tree.Report, ManifestFile)); err != nil {
		return err
	}
	if layout.Command == "" {
		return nil
	}
	return runner.Run(ctx, LayoutCommand(layout, tree, m))
}

// LayoutCommand builds the layout generator invocation.
func LayoutCommand(layout config.Layout, tree *outtree.Tree, m *Manifest) tools.Command {
	args := append([]string(nil), layout.Args...)
	args = append(args,
		"--files-path", tree.Root,
		"--summary-path", tree.Summary,
		"--html-path", tree.Report,
		"--images-path", tree.Images,
		"--subject-id", m.Subject,
	)
	if m.Session != "" {
		args = append(args, "--session-id", m.Session)
	}
	return tools.Command{Name: layout.Command, Args: args}
}
