// Package tensor packs canvas snapshots and bitmaps into classifier inputs
// and decodes classifier outputs.
package tensor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Brownie44l1/digit-canvas/internal/canvas"
)

var (
	ErrShapeMismatch = errors.New("shape mismatch")
	ErrEmptyVector   = errors.New("empty output vector")
)

type Layout string

const (
	NHWC Layout = "NHWC"
	NCHW Layout = "NCHW"
)

func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToUpper(s)) {
	case "", NHWC:
		return NHWC, nil
	case NCHW:
		return NCHW, nil
	}
	return "", fmt.Errorf("unknown tensor layout %q", s)
}

// Normalization is applied as (v - Mean) / Std. The zero value passes
// values through unchanged.
type Normalization struct {
	Mean float32 `json:"mean" yaml:"mean"`
	Std  float32 `json:"std" yaml:"std"`
}

func (n Normalization) apply(v float32) float32 {
	if n.Std == 0 {
		return v - n.Mean
	}
	return (v - n.Mean) / n.Std
}

// InputDesc describes the input a classifier declares.
type InputDesc struct {
	Layout    Layout
	Height    int
	Width     int
	Channels  int
	Normalize Normalization
}

// DescFromShape reads a 4-D batch shape in the given layout.
func DescFromShape(shape []int64, layout Layout) (InputDesc, error) {
	if len(shape) != 4 {
		return InputDesc{}, fmt.Errorf("%w: want rank 4 input shape, got %v", ErrShapeMismatch, shape)
	}
	if shape[0] != 1 {
		return InputDesc{}, fmt.Errorf("%w: batch size must be 1, got %d", ErrShapeMismatch, shape[0])
	}
	d := InputDesc{Layout: layout}
	switch layout {
	case NHWC:
		d.Height, d.Width, d.Channels = int(shape[1]), int(shape[2]), int(shape[3])
	case NCHW:
		d.Channels, d.Height, d.Width = int(shape[1]), int(shape[2]), int(shape[3])
	default:
		return InputDesc{}, fmt.Errorf("unknown tensor layout %q", layout)
	}
	if d.Height <= 0 || d.Width <= 0 || d.Channels <= 0 {
		return InputDesc{}, fmt.Errorf("%w: non-positive dimension in %v", ErrShapeMismatch, shape)
	}
	return d, nil
}

func (d InputDesc) Shape() []int64 {
	if d.Layout == NCHW {
		return []int64{1, int64(d.Channels), int64(d.Height), int64(d.Width)}
	}
	return []int64{1, int64(d.Height), int64(d.Width), int64(d.Channels)}
}

func (d InputDesc) Size() int {
	return d.Height * d.Width * d.Channels
}

// Input is an immutable classifier input. Data is laid out as Shape.
type Input struct {
	Shape []int64
	Data  []float32
}

func (in Input) Len() int { return len(in.Data) }

// FromSnapshot packs a canvas snapshot. The snapshot must match the declared
// width and height exactly; it is never reshaped or resampled.
func FromSnapshot(snap canvas.Snapshot, desc InputDesc) (Input, error) {
	if snap.Width != desc.Width || snap.Height != desc.Height {
		return Input{}, fmt.Errorf("%w: canvas is %dx%d, model expects %dx%d",
			ErrShapeMismatch, snap.Width, snap.Height, desc.Width, desc.Height)
	}
	return pack(desc, snap.At), nil
}

// FromValues packs a flat row-major single-channel buffer of Width*Height
// values, or an already packed buffer of Size() values.
func FromValues(values []float32, desc InputDesc) (Input, error) {
	switch len(values) {
	case desc.Size():
		data := make([]float32, len(values))
		for i, v := range values {
			data[i] = desc.Normalize.apply(v)
		}
		return Input{Shape: desc.Shape(), Data: data}, nil
	case desc.Width * desc.Height:
		return pack(desc, func(x, y int) float32 { return values[y*desc.Width+x] }), nil
	}
	return Input{}, fmt.Errorf("%w: expected %d values, got %d", ErrShapeMismatch, desc.Size(), len(values))
}

func pack(desc InputDesc, at func(x, y int) float32) Input {
	data := make([]float32, desc.Size())
	plane := desc.Width * desc.Height
	for y := 0; y < desc.Height; y++ {
		for x := 0; x < desc.Width; x++ {
			v := desc.Normalize.apply(at(x, y))
			for ch := 0; ch < desc.Channels; ch++ {
				if desc.Layout == NCHW {
					data[ch*plane+y*desc.Width+x] = v
				} else {
					data[(y*desc.Width+x)*desc.Channels+ch] = v
				}
			}
		}
	}
	return Input{Shape: desc.Shape(), Data: data}
}
