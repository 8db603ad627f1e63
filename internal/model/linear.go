package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Brownie44l1/digit-canvas/internal/tensor"
)

// LinearWeights is the on-disk form of a single dense layer:
// scores[k] = sum_i Weights[k][i]*x[i] + Bias[k].
type LinearWeights struct {
	Weights [][]float32 `json:"weights"`
	Bias    []float32   `json:"bias"`
}

type linearClassifier struct {
	w        LinearWeights
	meta     Metadata
	released bool
}

func openLinear(path string, meta Metadata) (*linearClassifier, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read weights: %w", ErrModelLoad, err)
	}

	var w LinearWeights
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: failed to parse weights: %w", ErrModelLoad, err)
	}

	outputs := meta.OutputSize()
	if len(w.Weights) != outputs {
		return nil, fmt.Errorf("%w: %d weight rows for %d outputs", ErrModelLoad, len(w.Weights), outputs)
	}
	if w.Bias == nil {
		w.Bias = make([]float32, outputs)
	}
	if len(w.Bias) != outputs {
		return nil, fmt.Errorf("%w: %d biases for %d outputs", ErrModelLoad, len(w.Bias), outputs)
	}
	for k, row := range w.Weights {
		if len(row) != meta.InputSize() {
			return nil, fmt.Errorf("%w: weight row %d has %d entries, input has %d",
				ErrModelLoad, k, len(row), meta.InputSize())
		}
	}

	return &linearClassifier{w: w, meta: meta}, nil
}

func (c *linearClassifier) Metadata() Metadata { return c.meta }

func (c *linearClassifier) Infer(in tensor.Input) ([]float32, error) {
	if c.released {
		return nil, ErrUseAfterRelease
	}
	if err := checkInput(c.meta, in); err != nil {
		return nil, err
	}

	scores := make([]float32, len(c.w.Weights))
	for k, row := range c.w.Weights {
		sum := c.w.Bias[k]
		for i, x := range in.Data {
			sum += row[i] * x
		}
		scores[k] = sum
	}
	return scores, nil
}

func (c *linearClassifier) Release() error {
	if c.released {
		return ErrUseAfterRelease
	}
	c.released = true
	c.w = LinearWeights{}
	return nil
}
