package mosaic

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/brainviz/execsummary/pkg/errors"
)

// AppendHorizontal places the images at paths side by side, top aligned,
// and writes the result to dest. The format follows dest's extension.
func AppendHorizontal(paths []string, dest string) error {
	if len(paths) == 0 {
		return errors.New(errors.ErrCodeEmptySequence, "nothing to append for %s", dest)
	}

	imgs := make([]image.Image, len(paths))
	width, height := 0, 0
	for i, path := range paths {
		img, err := imaging.Open(path)
		if err != nil {
			return errors.Wrap(errors.ErrCodeImageDecode, err, "decode %s", path)
		}
		imgs[i] = img
		b := img.Bounds()
		width += b.Dx()
		height = max(height, b.Dy())
	}

	canvas := imaging.New(width, height, color.Black)
	x := 0
	for _, img := range imgs {
		canvas = imaging.Paste(canvas, img, image.Pt(x, 0))
		x += img.Bounds().Dx()
	}

	if err := imaging.Save(canvas, dest); err != nil {
		return errors.Wrap(errors.ErrCodeNotWritable, err, "write %s", dest)
	}
	return nil
}
