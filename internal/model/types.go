package model

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/Brownie44l1/digit-canvas/internal/tensor"
)

// DigitClasses is the label set used when metadata lists none.
var DigitClasses = []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}

type Metadata struct {
	InputShape  []int64               `json:"input_shape"`
	OutputShape []int64               `json:"output_shape"`
	Classes     []string              `json:"classes"`
	ImageSize   int                   `json:"image_size"`
	InputName   string                `json:"input_name,omitempty"`
	OutputName  string                `json:"output_name,omitempty"`
	Layout      string                `json:"layout,omitempty"`
	Normalize   *tensor.Normalization `json:"normalize,omitempty"`
}

// ReadMetadata loads and validates a metadata file, filling defaults for the
// optional fields.
func ReadMetadata(path string) (Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: failed to read metadata: %w", ErrModelLoad, err)
	}

	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return Metadata{}, fmt.Errorf("%w: failed to parse metadata: %w", ErrModelLoad, err)
	}
	if err := m.normalize(); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

func (m *Metadata) normalize() error {
	if len(m.Classes) == 0 {
		m.Classes = DigitClasses
	}
	if m.InputName == "" {
		m.InputName = "input"
	}
	if m.OutputName == "" {
		m.OutputName = "output"
	}
	if len(m.OutputShape) == 0 {
		m.OutputShape = []int64{1, int64(len(m.Classes))}
	}
	desc, err := m.InputDesc()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	// image_size is the side of the square bitmap the model was trained on.
	if m.ImageSize != 0 && (m.ImageSize != desc.Width || m.ImageSize != desc.Height) {
		return fmt.Errorf("%w: image size %d does not match input %dx%d",
			ErrModelLoad, m.ImageSize, desc.Width, desc.Height)
	}
	if n := m.OutputSize(); n < len(m.Classes) {
		return fmt.Errorf("%w: output shape %v holds %d scores for %d classes",
			ErrModelLoad, m.OutputShape, n, len(m.Classes))
	}
	return nil
}

// InputDesc describes the tensor the model declares as its input.
func (m Metadata) InputDesc() (tensor.InputDesc, error) {
	layout, err := tensor.ParseLayout(m.Layout)
	if err != nil {
		return tensor.InputDesc{}, err
	}
	desc, err := tensor.DescFromShape(m.InputShape, layout)
	if err != nil {
		return tensor.InputDesc{}, err
	}
	if m.Normalize != nil {
		desc.Normalize = *m.Normalize
	}
	return desc, nil
}

func (m Metadata) InputSize() int {
	return shapeSize(m.InputShape)
}

func (m Metadata) OutputSize() int {
	return shapeSize(m.OutputShape)
}

func (m Metadata) Label(i int) string {
	if i >= 0 && i < len(m.Classes) {
		return m.Classes[i]
	}
	return strconv.Itoa(i)
}

func shapeSize(shape []int64) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range shape {
		n *= int(d)
	}
	return n
}

type PredictionRequest struct {
	Image []float32 `json:"image"`
}

type PredictionResponse struct {
	Digit       int                `json:"digit"`
	Class       string             `json:"class"`
	Confidence  float32            `json:"confidence"`
	Predictions map[string]float32 `json:"predictions"`
}
