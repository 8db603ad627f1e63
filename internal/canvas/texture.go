package canvas

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/gogpu/gg"
	"golang.org/x/image/draw"
)

// Texture renders the canvas as white ink on black.
func (c *Canvas) Texture() *gg.Pixmap {
	pm := gg.NewPixmap(c.width, c.height)
	pm.Clear(gg.Black)
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			v := float64(c.cells[y*c.width+x])
			if v == 0 {
				continue
			}
			pm.SetPixel(x, y, gg.RGB(v, v, v))
		}
	}
	return pm
}

// ScaledTexture renders the canvas enlarged by scale with point filtering,
// so every cell stays a hard-edged square.
func (c *Canvas) ScaledTexture(scale int) image.Image {
	src := c.Texture().ToImage()
	if scale <= 1 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, c.width*scale, c.height*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// SaveTexture writes the scaled texture to path as PNG.
func (c *Canvas) SaveTexture(path string, scale int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create texture file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, c.ScaledTexture(scale)); err != nil {
		return fmt.Errorf("failed to encode texture: %w", err)
	}
	return nil
}
