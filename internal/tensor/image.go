package tensor

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"
)

// FromImage converts a bitmap to grayscale in [0, 1], resizes it to the
// declared input size and packs it.
func FromImage(img image.Image, desc InputDesc) Input {
	b := img.Bounds()
	if b.Dx() != desc.Width || b.Dy() != desc.Height {
		img = resize.Resize(uint(desc.Width), uint(desc.Height), img, resize.Lanczos3)
		b = img.Bounds()
	}

	return pack(desc, func(x, y int) float32 {
		g := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
		return float32(g.Y) / 65535.0
	})
}
