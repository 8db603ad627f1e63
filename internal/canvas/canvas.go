// Package canvas holds the grayscale drawing surface a digit is painted on.
//
// A Canvas is owned by a single session and is not safe for concurrent use.
// Hosts that dispatch events from more than one goroutine must serialise
// access themselves.
package canvas

import (
	"errors"
	"fmt"
	"image"
	"math"
)

const (
	Background float32 = 0
	Ink        float32 = 1
)

var ErrInvalidSize = errors.New("invalid canvas size")

// Point is a position in canvas space. Cell (x, y) sits at Point{x, y}.
type Point struct {
	X, Y float64
}

type Canvas struct {
	width  int
	height int
	cells  []float32
}

// New returns an all-black canvas of the given size.
func New(width, height int) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return &Canvas{
		width:  width,
		height: height,
		cells:  make([]float32, width*height),
	}, nil
}

// FromTexture sizes a new canvas after a reference texture. Only the
// dimensions are taken; the canvas starts black.
func FromTexture(img image.Image) (*Canvas, error) {
	b := img.Bounds()
	return New(b.Dx(), b.Dy())
}

func (c *Canvas) Width() int  { return c.width }
func (c *Canvas) Height() int { return c.height }

// At returns the intensity of cell (x, y). Out of range cells read as
// Background.
func (c *Canvas) At(x, y int) float32 {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return Background
	}
	return c.cells[y*c.width+x]
}

func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = Background
	}
}

// Stroke paints every cell whose distance to center is strictly less than
// radius/2. Cells outside the disc keep their value.
func (c *Canvas) Stroke(center Point, radius float64) {
	if !(radius > 0) {
		return
	}
	limit := radius / 2
	for y := 0; y < c.height; y++ {
		dy := float64(y) - center.Y
		for x := 0; x < c.width; x++ {
			dx := float64(x) - center.X
			if math.Hypot(dx, dy) < limit {
				c.cells[y*c.width+x] = Ink
			}
		}
	}
}

// Inked counts the cells holding ink.
func (c *Canvas) Inked() int {
	n := 0
	for _, v := range c.cells {
		if v == Ink {
			n++
		}
	}
	return n
}

// Snapshot copies the current cells, row-major with row 0 at the top.
func (c *Canvas) Snapshot() Snapshot {
	pix := make([]float32, len(c.cells))
	copy(pix, c.cells)
	return Snapshot{Width: c.width, Height: c.height, pix: pix}
}

// Snapshot is a read-only copy of a canvas.
type Snapshot struct {
	Width  int
	Height int
	pix    []float32
}

func (s Snapshot) At(x, y int) float32 {
	if x < 0 || x >= s.Width || y < 0 || y >= s.Height {
		return Background
	}
	return s.pix[y*s.Width+x]
}

// Values returns a copy of the cells in row-major order.
func (s Snapshot) Values() []float32 {
	out := make([]float32, len(s.pix))
	copy(out, s.pix)
	return out
}

func (s Snapshot) Len() int { return len(s.pix) }
