// Package model loads trained digit classifiers and runs them.
package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Brownie44l1/digit-canvas/internal/tensor"
)

var (
	ErrModelLoad       = errors.New("model load failed")
	ErrInference       = errors.New("inference failed")
	ErrUseAfterRelease = errors.New("classifier used after release")
)

const (
	BackendONNX   = "onnx"
	BackendLinear = "linear"
)

// Classifier is a loaded model handle. Infer blocks until the model has run.
// Release frees the handle; calling it again, or calling Infer afterwards,
// returns ErrUseAfterRelease.
type Classifier interface {
	Inferer
	Metadata() Metadata
	Release() error
}

type Inferer interface {
	Infer(in tensor.Input) ([]float32, error)
}

type Options struct {
	Backend       string
	ModelPath     string
	MetadataPath  string
	SharedLibrary string
}

// Load reads the metadata and opens the model with the requested backend.
func Load(opts Options) (Classifier, error) {
	meta, err := ReadMetadata(opts.MetadataPath)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(opts.Backend) {
	case "", BackendONNX:
		return openONNX(opts.ModelPath, opts.SharedLibrary, meta)
	case BackendLinear:
		return openLinear(opts.ModelPath, meta)
	}
	return nil, fmt.Errorf("%w: unknown backend %q", ErrModelLoad, opts.Backend)
}

// Classify runs in through c and decodes the top class using the labels
// in meta.
func Classify(c Inferer, meta Metadata, in tensor.Input) (*PredictionResponse, error) {
	scores, err := c.Infer(in)
	if err != nil {
		return nil, err
	}

	digit, err := tensor.Top1(scores, len(meta.Classes))
	if err != nil {
		return nil, err
	}

	predictions := make(map[string]float32, len(meta.Classes))
	for i, class := range meta.Classes {
		predictions[class] = scores[i]
	}

	return &PredictionResponse{
		Digit:       digit,
		Class:       meta.Label(digit),
		Confidence:  scores[digit],
		Predictions: predictions,
	}, nil
}

func checkInput(meta Metadata, in tensor.Input) error {
	if in.Len() != meta.InputSize() {
		return fmt.Errorf("%w: %w: expected %d values, got %d",
			ErrInference, tensor.ErrShapeMismatch, meta.InputSize(), in.Len())
	}
	return nil
}
