package mosaic

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainviz/execsummary/pkg/errors"
)

func TestNaturalSort(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "numeric runs",
			in:   []string{"f2.png", "f10.png", "f1.png"},
			want: []string{"f1.png", "f2.png", "f10.png"},
		},
		{
			name: "frame names",
			in:   []string{"P_T1_frame_100.png", "P_T1_frame_9.png", "P_T1_frame_0.png", "P_T1_frame_10.png"},
			want: []string{"P_T1_frame_0.png", "P_T1_frame_9.png", "P_T1_frame_10.png", "P_T1_frame_100.png"},
		},
		{
			name: "case insensitive text",
			in:   []string{"b1", "A2", "a1"},
			want: []string{"a1", "A2", "b1"},
		},
		{
			name: "prefix sorts first",
			in:   []string{"frame1x", "frame1"},
			want: []string{"frame1", "frame1x"},
		},
		{
			name: "huge numbers",
			in:   []string{"f100000000000000000000000", "f99999999999999999999999"},
			want: []string{"f99999999999999999999999", "f100000000000000000000000"},
		},
		{
			name: "leading zeros tie broken deterministically",
			in:   []string{"f1", "f01"},
			want: []string{"f01", "f1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := append([]string(nil), tt.in...)
			NaturalSort(got)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("NaturalSort mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNaturalLess(t *testing.T) {
	assert.True(t, NaturalLess("frame_2", "frame_10"))
	assert.False(t, NaturalLess("frame_10", "frame_2"))
	assert.False(t, NaturalLess("x", "x"))
}

func TestGeometry(t *testing.T) {
	tests := []struct {
		n, side, size int
	}{
		{0, 0, 0},
		{1, 1, 218},
		{3, 1, 218},
		{4, 2, 436},
		{9, 3, 654},
		{10, 3, 654},
		{169, 13, 2834},
		{170, 13, 2834},
	}
	for _, tt := range tests {
		side, size := Geometry(tt.n, DefaultTile)
		if side != tt.side || size != tt.size {
			t.Errorf("Geometry(%d) = (%d, %d), want (%d, %d)", tt.n, side, size, tt.side, tt.size)
		}
	}
}

func writeFrame(t *testing.T, path string, img image.Image) {
	t.Helper()
	require.NoError(t, imaging.Save(img, path))
}

func solid(size int, c color.Color) image.Image {
	return imaging.New(size, size, c)
}

func assertNear(t *testing.T, img image.Image, x, y int, want color.NRGBA) {
	t.Helper()
	r, g, b, _ := img.At(x, y).RGBA()
	got := [3]int{int(r >> 8), int(g >> 8), int(b >> 8)}
	exp := [3]int{int(want.R), int(want.G), int(want.B)}
	for i := range got {
		d := got[i] - exp[i]
		if d < -40 || d > 40 {
			t.Errorf("pixel (%d,%d) = %v, want about %v", x, y, got, exp)
			return
		}
	}
}

var palette = []color.NRGBA{
	{R: 255, A: 255},
	{G: 255, A: 255},
	{B: 255, A: 255},
	{R: 255, G: 255, B: 255, A: 255},
}

func TestAssemblePlacement(t *testing.T) {
	dir := t.TempDir()
	for i, c := range palette {
		writeFrame(t, filepath.Join(dir, fmt.Sprintf("P_T1_frame_%d.png", i+1)), solid(16, c))
	}
	dest := filepath.Join(t.TempDir(), "T1_mosaic.jpg")

	res, err := Assemble(context.Background(), dir, dest, Options{Tile: 16, Quality: 95})
	require.NoError(t, err)
	assert.Equal(t, &Result{Path: dest, Frames: 4, Placed: 4, Side: 2, Size: 32}, res)

	img, err := imaging.Open(dest)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 32), img.Bounds())

	// Reverse natural order: frame 4 first.
	assertNear(t, img, 8, 8, palette[3])
	assertNear(t, img, 24, 8, palette[2])
	assertNear(t, img, 8, 24, palette[1])
	assertNear(t, img, 24, 24, palette[0])
}

func TestAssembleFlipsFrames(t *testing.T) {
	dir := t.TempDir()
	frame := imaging.New(40, 40, palette[0])
	frame = imaging.Paste(frame, imaging.New(20, 40, palette[2]), image.Pt(20, 0))
	writeFrame(t, filepath.Join(dir, "f1.png"), frame)

	dest := filepath.Join(t.TempDir(), "m.jpg")
	_, err := Assemble(context.Background(), dir, dest, Options{Tile: 40})
	require.NoError(t, err)

	img, err := imaging.Open(dest)
	require.NoError(t, err)
	assertNear(t, img, 5, 20, palette[2])
	assertNear(t, img, 35, 20, palette[0])
}

func TestAssembleDownscales(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, filepath.Join(dir, "f1.png"), imaging.New(900, 800, palette[1]))

	dest := filepath.Join(t.TempDir(), "m.jpg")
	res, err := Assemble(context.Background(), dir, dest, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultTile, res.Size)

	img, err := imaging.Open(dest)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, DefaultTile, DefaultTile), img.Bounds())
	assertNear(t, img, 100, 50, palette[1])
	// 900x800 fits as 218x194, leaving the bottom rows black.
	assertNear(t, img, 100, 210, color.NRGBA{A: 255})
}

func TestAssembleTruncatesNonSquare(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 10; i++ {
		writeFrame(t, filepath.Join(dir, fmt.Sprintf("f%d.png", i)), solid(4, palette[i%4]))
	}

	res, err := Assemble(context.Background(), dir, filepath.Join(t.TempDir(), "m.jpg"), Options{Tile: 4})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Frames)
	assert.Equal(t, 9, res.Placed)
	assert.Equal(t, 3, res.Side)
	assert.Equal(t, 12, res.Size)
}

func TestAssembleEmptyDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	dest := filepath.Join(t.TempDir(), "m.jpg")

	_, err := Assemble(context.Background(), dir, dest, Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeEmptySequence))
	assert.NoFileExists(t, dest)
}

func TestAssembleMissingDir(t *testing.T) {
	_, err := Assemble(context.Background(), filepath.Join(t.TempDir(), "nope"), "m.jpg", Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}

func TestAssembleUnreadableFrameFails(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 9; i++ {
		writeFrame(t, filepath.Join(dir, fmt.Sprintf("f%d.png", i)), solid(4, palette[0]))
	}
	// f0 sorts last after reversal, beyond the 3x3 grid, and still fails.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f0.png"), []byte("not a png"), 0644))
	dest := filepath.Join(t.TempDir(), "m.jpg")

	_, err := Assemble(context.Background(), dir, dest, Options{Tile: 4})
	assert.True(t, errors.Is(err, errors.ErrCodeImageDecode))
	assert.NoFileExists(t, dest)
}

func TestAssembleCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, filepath.Join(dir, "f1.png"), solid(4, palette[0]))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Assemble(ctx, dir, filepath.Join(t.TempDir(), "m.jpg"), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFramesOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"f2.png", "f10.png", "f1.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	got, err := Frames(dir)
	require.NoError(t, err)
	want := []string{
		filepath.Join(dir, "f10.png"),
		filepath.Join(dir, "f2.png"),
		filepath.Join(dir, "f1.png"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Frames mismatch (-want +got):\n%s", diff)
	}
}

func TestAppendHorizontal(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "x36.png")
	b := filepath.Join(dir, "x45.png")
	writeFrame(t, a, imaging.New(10, 8, palette[0]))
	writeFrame(t, b, imaging.New(5, 12, palette[1]))

	dest := filepath.Join(dir, "sub-01_desc-AtlasInSubcort.gif")
	require.NoError(t, AppendHorizontal([]string{a, b}, dest))

	img, err := imaging.Open(dest)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 15, 12), img.Bounds())
	assertNear(t, img, 2, 2, palette[0])
	assertNear(t, img, 12, 10, palette[1])
}

func TestAppendHorizontalErrors(t *testing.T) {
	err := AppendHorizontal(nil, "x.gif")
	assert.True(t, errors.Is(err, errors.ErrCodeEmptySequence))

	err = AppendHorizontal([]string{filepath.Join(t.TempDir(), "missing.png")}, "x.gif")
	assert.True(t, errors.Is(err, errors.ErrCodeImageDecode))
}
