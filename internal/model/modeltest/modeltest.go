// Package modeltest writes small deterministic linear models for tests.
package modeltest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/digit-canvas/internal/model"
)

const (
	Size = 28

	// GoldenDigit is what the golden model answers for any drawing that
	// covers the 3x3 block around (14, 14).
	GoldenDigit = 7
	// BlankDigit is what it answers for an empty canvas.
	BlankDigit = 1
)

// Golden returns the weights of a 28x28 single-channel model. Class 7 sums
// the 3x3 block around the centre, class 0 sums the four corner cells and
// class 1 carries a bias of 0.5.
func Golden() model.LinearWeights {
	w := model.LinearWeights{
		Weights: make([][]float32, 10),
		Bias:    make([]float32, 10),
	}
	for k := range w.Weights {
		w.Weights[k] = make([]float32, Size*Size)
	}
	for y := 13; y <= 15; y++ {
		for x := 13; x <= 15; x++ {
			w.Weights[GoldenDigit][y*Size+x] = 1
		}
	}
	for _, i := range []int{0, Size - 1, (Size - 1) * Size, Size*Size - 1} {
		w.Weights[0][i] = 1
	}
	w.Bias[BlankDigit] = 0.5
	return w
}

func GoldenMetadata() model.Metadata {
	return model.Metadata{
		InputShape:  []int64{1, Size, Size, 1},
		OutputShape: []int64{1, 10},
		Classes:     model.DigitClasses,
		ImageSize:   Size,
		Layout:      "NHWC",
	}
}

// Write stores weights and metadata under dir and returns load options for
// the linear backend.
func Write(t testing.TB, dir string, w model.LinearWeights, meta model.Metadata) model.Options {
	t.Helper()

	opts := model.Options{
		Backend:      model.BackendLinear,
		ModelPath:    filepath.Join(dir, "model_linear.json"),
		MetadataPath: filepath.Join(dir, "model_metadata.json"),
	}
	writeJSON(t, opts.ModelPath, w)
	writeJSON(t, opts.MetadataPath, meta)
	return opts
}

// WriteGolden stores the golden model in a fresh temporary directory.
func WriteGolden(t testing.TB) model.Options {
	t.Helper()
	return Write(t, t.TempDir(), Golden(), GoldenMetadata())
}

func writeJSON(t testing.TB, path string, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
}
