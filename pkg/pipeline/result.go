package pipeline

import (
	"sync"
	"time"

	"github.com/brainviz/execsummary/pkg/outtree"
	"github.com/brainviz/execsummary/pkg/report"
)

// Status is the outcome of one artifact.
type Status string

const (
	StatusOK      Status = "ok"
	StatusCached  Status = "cached"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Artifact records the outcome of one output file or frame sequence.
type Artifact struct {
	Stage   string
	File    string // path relative to the images directory
	Status  Status
	Frames  int    // frames rendered, for sequences
	Missing string // the absent input, for skips
	Err     error  // the tool error, for failures
}

// StageStats records the timing of one stage.
type StageStats struct {
	Stage    string
	Duration time.Duration
	Produced int
	Failed   int
	Skipped  bool
}

// Result describes a finished run.
type Result struct {
	RunID    string
	Tree     *outtree.Tree
	HasT2    bool
	Tasks    []string
	Manifest *report.Manifest
	Stages   []StageStats

	mu        sync.Mutex
	artifacts []Artifact
}

func (r *Result) add(a Artifact) {
	r.mu.Lock()
	r.artifacts = append(r.artifacts, a)
	r.mu.Unlock()
}

// Artifacts returns the recorded artifacts in completion order.
func (r *Result) Artifacts() []Artifact {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Artifact(nil), r.artifacts...)
}

// Stage returns the artifacts recorded for one stage.
func (r *Result) Stage(stage string) []Artifact {
	var out []Artifact
	for _, a := range r.Artifacts() {
		if a.Stage == stage {
			out = append(out, a)
		}
	}
	return out
}

// Count returns how many artifacts have status s.
func (r *Result) Count(s Status) int {
	n := 0
	for _, a := range r.Artifacts() {
		if a.Status == s {
			n++
		}
	}
	return n
}

// Failed returns the failed artifacts.
func (r *Result) Failed() []Artifact {
	var out []Artifact
	for _, a := range r.Artifacts() {
		if a.Status == StatusFailed {
			out = append(out, a)
		}
	}
	return out
}

// Skipped returns the skipped artifacts.
func (r *Result) Skipped() []Artifact {
	var out []Artifact
	for _, a := range r.Artifacts() {
		if a.Status == StatusSkipped {
			out = append(out, a)
		}
	}
	return out
}

func (r *Result) countSince(stage string, from int) (produced, failed, skipped int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.artifacts[from:] {
		if a.Stage != stage {
			continue
		}
		switch a.Status {
		case StatusOK, StatusCached:
			produced++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return produced, failed, skipped
}

func (r *Result) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.artifacts)
}
