// Package scene resolves Connectome Workbench scene templates.
//
// A template is scene-file text with placeholder tokens. Two flavors exist:
//
//   - the anatomical views template, where each token T appears as T_PATH
//     (replaced by the absolute path) and T_NAME (replaced by its basename)
//   - the brainsprite template, where each token T appears as
//     T_NAME_and_PATH (replaced by the path) and T_NAME (its basename)
//
// The number of frames in a resolved brainsprite scene is the number of
// times the renderer's frame marker appears in its text. The marker is
// counted, not parsed, because the scene format belongs to the renderer.
package scene

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/brainviz/execsummary/pkg/cache"
	"github.com/brainviz/execsummary/pkg/errors"
)

// Anatomical views template tokens.
const (
	T1Img  = "T1_IMG"
	T2Img  = "T2_IMG"
	RPial  = "RPIAL"
	LPial  = "LPIAL"
	RWhite = "RWHITE"
	LWhite = "LWHITE"
)

// Brainsprite template tokens.
const (
	TxImg    = "TX_IMG"
	RPialBS  = "R_PIAL"
	LPialBS  = "L_PIAL"
	RWhiteBS = "R_WHITE"
	LWhiteBS = "L_WHITE"
)

const (
	pathSuffix = "_PATH"
	nameSuffix = "_NAME"
	bothSuffix = "_NAME_and_PATH"
)

// Flavor selects the token syntax of a template.
type Flavor int

const (
	// PNGs is the anatomical views flavor (T_PATH, T_NAME).
	PNGs Flavor = iota
	// Brainsprite is the frame-sequence flavor (T_NAME_and_PATH, T_NAME).
	Brainsprite
)

func (f Flavor) String() string {
	if f == Brainsprite {
		return "brainsprite"
	}
	return "pngs"
}

// Template is an unresolved scene document.
type Template struct {
	Path string
	Text string
}

// Load reads a template. Files ending in .gz are decompressed.
func Load(path string) (*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scene template %s", path)
		}
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decompress %s", path)
		}
		defer zr.Close()
		r = zr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return &Template{Path: path, Text: string(data)}, nil
}

// Resolve substitutes every token in tokens. Token names must be disjoint,
// which holds for the fixed token sets of both flavors.
func (t *Template) Resolve(flavor Flavor, tokens map[string]string) *Resolved {
	return &Resolved{Text: replacer(flavor, tokens).Replace(t.Text)}
}

func replacer(flavor Flavor, tokens map[string]string) *strings.Replacer {
	// Sorted so that the replacement is deterministic for a given map.
	keys := make([]string, 0, len(tokens))
	for k := range tokens {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []string
	for _, k := range keys {
		path := tokens[k]
		name := filepath.Base(path)
		switch flavor {
		case Brainsprite:
			// T_NAME_and_PATH must match before its T_NAME prefix.
			pairs = append(pairs, k+bothSuffix, path, k+nameSuffix, name)
		default:
			pairs = append(pairs, k+pathSuffix, path, k+nameSuffix, name)
		}
	}
	return strings.NewReplacer(pairs...)
}

// Resolved is concrete scene text with every supplied token replaced.
type Resolved struct {
	Text string
}

// Hash identifies the resolved text, for frame caching.
func (r *Resolved) Hash() string {
	return cache.Hash([]byte(r.Text))
}

// CountFrames returns how many times marker occurs. An empty marker
// counts nothing.
func (r *Resolved) CountFrames(marker string) int {
	if marker == "" {
		return 0
	}
	return strings.Count(r.Text, marker)
}

// Unresolved returns the placeholder occurrences of tokens still present in
// the text, sorted. A non-empty result means the template uses a token the
// caller did not supply.
func (r *Resolved) Unresolved(flavor Flavor, tokens []string) []string {
	suffixes := []string{pathSuffix, nameSuffix}
	if flavor == Brainsprite {
		suffixes = []string{bothSuffix, nameSuffix}
	}

	var left []string
	for _, tok := range tokens {
		for _, s := range suffixes {
			if strings.Contains(r.Text, tok+s) {
				left = append(left, tok+s)
			}
		}
	}
	sort.Strings(left)
	return left
}

// Save writes the resolved text to path, replacing any existing file.
func (r *Resolved) Save(path string) error {
	if err := os.WriteFile(path, []byte(r.Text), 0644); err != nil {
		return errors.Wrap(errors.ErrCodeNotWritable, err, "write scene %s", path)
	}
	return nil
}

// Scratch is a resolved scene persisted for the duration of one artifact.
type Scratch struct {
	Path string
	*Resolved
}

// Persist saves r at path and returns a handle whose Remove deletes it.
func Persist(r *Resolved, path string) (*Scratch, error) {
	if err := r.Save(path); err != nil {
		return nil, err
	}
	return &Scratch{Path: path, Resolved: r}, nil
}

// Remove deletes the scratch file. A missing file is not an error.
func (s *Scratch) Remove() error {
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Tokens lists the token names of a flavor in template order.
func Tokens(flavor Flavor) []string {
	if flavor == Brainsprite {
		return []string{TxImg, RPialBS, LPialBS, RWhiteBS, LWhiteBS}
	}
	return []string{T1Img, T2Img, RPial, LPial, RWhite, LWhite}
}
