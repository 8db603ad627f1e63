package tensor

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/digit-canvas/internal/canvas"
)

func TestTop1(t *testing.T) {
	nan := float32(math.NaN())
	tests := []struct {
		name   string
		scores []float32
		want   int
	}{
		{name: "first max wins", scores: []float32{5, 3, 9, 1, 9, 0, 0, 0, 0, 0}, want: 2},
		{name: "uniform", scores: []float32{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, want: 0},
		{name: "last", scores: []float32{0, 0, 0, 0, 0, 0, 0, 0, 0, 0.1}, want: 9},
		{name: "negative logits", scores: []float32{-3, -2, -8, -1.5, -4, -9, -9, -9, -9, -9}, want: 3},
		{name: "nan never wins", scores: []float32{nan, 0, 0.5, 0, 0, 0, 0, 0, 0, 0}, want: 2},
		{name: "extra entries ignored", scores: []float32{0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 99}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Top1(tt.scores, 10)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTop1Errors(t *testing.T) {
	_, err := Top1(nil, 10)
	assert.ErrorIs(t, err, ErrEmptyVector)

	_, err = Top1([]float32{}, 10)
	assert.ErrorIs(t, err, ErrEmptyVector)

	_, err = Top1([]float32{1, 2, 3}, 10)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func mnistDesc() InputDesc {
	return InputDesc{Layout: NHWC, Height: 28, Width: 28, Channels: 1}
}

func TestDescFromShape(t *testing.T) {
	d, err := DescFromShape([]int64{1, 28, 28, 1}, NHWC)
	require.NoError(t, err)
	assert.Equal(t, mnistDesc(), d)
	assert.Equal(t, []int64{1, 28, 28, 1}, d.Shape())

	d, err = DescFromShape([]int64{1, 3, 32, 16}, NCHW)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Channels)
	assert.Equal(t, 32, d.Height)
	assert.Equal(t, 16, d.Width)
	assert.Equal(t, []int64{1, 3, 32, 16}, d.Shape())

	_, err = DescFromShape([]int64{28, 28}, NHWC)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = DescFromShape([]int64{4, 28, 28, 1}, NHWC)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = DescFromShape([]int64{1, 0, 28, 1}, NHWC)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestParseLayout(t *testing.T) {
	l, err := ParseLayout("")
	require.NoError(t, err)
	assert.Equal(t, NHWC, l)

	l, err = ParseLayout("nchw")
	require.NoError(t, err)
	assert.Equal(t, NCHW, l)

	_, err = ParseLayout("CHW")
	assert.Error(t, err)
}

func TestFromSnapshot(t *testing.T) {
	c, err := canvas.New(28, 28)
	require.NoError(t, err)
	c.Stroke(canvas.Point{X: 14, Y: 14}, 10)

	in, err := FromSnapshot(c.Snapshot(), mnistDesc())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 28, 28, 1}, in.Shape)
	assert.Equal(t, 784, in.Len())
	assert.Equal(t, float32(1), in.Data[14*28+14])
	assert.Equal(t, float32(0), in.Data[0])
}

func TestFromSnapshotShapeMismatch(t *testing.T) {
	c, err := canvas.New(32, 32)
	require.NoError(t, err)

	_, err = FromSnapshot(c.Snapshot(), mnistDesc())
	assert.ErrorIs(t, err, ErrShapeMismatch)

	c, err = canvas.New(28, 27)
	require.NoError(t, err)
	_, err = FromSnapshot(c.Snapshot(), mnistDesc())
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestFromSnapshotChannels(t *testing.T) {
	c, err := canvas.New(2, 2)
	require.NoError(t, err)
	c.Stroke(canvas.Point{X: 1, Y: 0}, 1)

	nhwc, err := FromSnapshot(c.Snapshot(), InputDesc{Layout: NHWC, Height: 2, Width: 2, Channels: 3})
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0, 1, 1, 1, 0, 0, 0, 0, 0, 0}, nhwc.Data)

	nchw, err := FromSnapshot(c.Snapshot(), InputDesc{Layout: NCHW, Height: 2, Width: 2, Channels: 3})
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0}, nchw.Data)
	assert.Equal(t, []int64{1, 3, 2, 2}, nchw.Shape)
}

func TestFromSnapshotNormalize(t *testing.T) {
	c, err := canvas.New(2, 1)
	require.NoError(t, err)
	c.Stroke(canvas.Point{X: 0, Y: 0}, 1)

	desc := InputDesc{Layout: NHWC, Height: 1, Width: 2, Channels: 1,
		Normalize: Normalization{Mean: 0.5, Std: 0.5}}
	in, err := FromSnapshot(c.Snapshot(), desc)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, -1}, in.Data)
}

func TestFromValues(t *testing.T) {
	desc := InputDesc{Layout: NCHW, Height: 1, Width: 2, Channels: 2}

	in, err := FromValues([]float32{0.25, 0.75}, desc)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.75, 0.25, 0.75}, in.Data)

	in, err = FromValues([]float32{1, 2, 3, 4}, desc)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, in.Data)

	_, err = FromValues([]float32{1, 2, 3}, desc)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestFromImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 28, 28))
	img.SetGray(3, 4, color.Gray{Y: 0xff})

	in := FromImage(img, mnistDesc())
	assert.Equal(t, 784, in.Len())
	assert.Equal(t, float32(1), in.Data[4*28+3])
	assert.Equal(t, float32(0), in.Data[0])
}

func TestFromImageResizes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 56, 56))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	in := FromImage(img, mnistDesc())
	require.Equal(t, 784, in.Len())
	for _, v := range in.Data {
		assert.InDelta(t, 1.0, v, 0.01)
	}
}
