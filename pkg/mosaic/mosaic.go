// Package mosaic composes rendered frames into brainsprite sprite sheets and
// appends slice images into horizontal strips.
//
// A mosaic is built from every file in a frame directory:
//
//  1. names are sorted in natural order, then reversed, because the viewer
//     plays frames in the opposite direction to the renderer's output
//  2. the grid side is floor(sqrt(n)) and the canvas is side*tile square
//  3. each frame is mirrored horizontally, shrunk to fit a tile, and pasted
//     at column i%side, row i/side
//  4. the canvas is encoded as JPEG
//
// When n is not a perfect square only the first side*side frames (after
// reordering) are placed. The viewer's sprite script expects exactly this
// truncation, so it must not be changed without updating the viewer.
package mosaic

import (
	"context"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/disintegration/imaging"

	"github.com/brainviz/execsummary/pkg/errors"
)

// Defaults match the brainsprite viewer.
const (
	DefaultTile    = 218
	DefaultQuality = 95
)

// Options controls mosaic assembly.
type Options struct {
	Tile    int // tile edge in pixels
	Quality int // JPEG quality, 1..100
}

func (o Options) withDefaults() Options {
	if o.Tile <= 0 {
		o.Tile = DefaultTile
	}
	if o.Quality <= 0 {
		o.Quality = DefaultQuality
	}
	return o
}

// Result describes an assembled mosaic.
type Result struct {
	Path   string
	Frames int // files found
	Placed int // files laid out, Side*Side at most
	Side   int // grid side in tiles
	Size   int // canvas edge in pixels
}

// Geometry returns the grid side and canvas edge for n frames.
func Geometry(n, tile int) (side, size int) {
	if n <= 0 {
		return 0, 0
	}
	side = int(math.Sqrt(float64(n)))
	for side*side > n {
		side--
	}
	for (side+1)*(side+1) <= n {
		side++
	}
	return side, side * tile
}

// Frames lists the regular files of dir in playback order: natural order,
// reversed. Returned paths are joined with dir.
func Frames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	NaturalSort(names)
	slices.Reverse(names)

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

// Assemble builds the mosaic of dir and writes it to dest. An empty
// directory yields an ErrCodeEmptySequence error and no file. Any frame that
// cannot be decoded fails the whole mosaic, since skipping it would shift
// every later frame off the ordinal the viewer expects.
func Assemble(ctx context.Context, dir, dest string, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	frames, err := Frames(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "list frames in %s", dir)
	}
	if len(frames) == 0 {
		return nil, errors.New(errors.ErrCodeEmptySequence, "no frames in %s", dir)
	}

	side, size := Geometry(len(frames), opts.Tile)
	canvas := imaging.New(size, size, color.Black)

	for i, path := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := imaging.Open(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeImageDecode, err, "decode frame %s", path)
		}
		if i >= side*side {
			continue
		}

		tile := imaging.Fit(imaging.FlipH(img), opts.Tile, opts.Tile, imaging.Lanczos)
		canvas = imaging.Paste(canvas, tile, image.Pt(i%side*opts.Tile, i/side*opts.Tile))
	}

	if err := imaging.Save(canvas, dest, imaging.JPEGQuality(opts.Quality)); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotWritable, err, "write mosaic %s", dest)
	}

	return &Result{
		Path:   dest,
		Frames: len(frames),
		Placed: min(len(frames), side*side),
		Side:   side,
		Size:   size,
	}, nil
}
