package model

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/Brownie44l1/digit-canvas/internal/tensor"
)

// The ONNX Runtime environment is process-wide; it is created with the first
// session and destroyed with the last one.
var (
	envMu   sync.Mutex
	envRefs int
)

func acquireEnvironment(sharedLibrary string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 {
		if sharedLibrary != "" {
			ort.SetSharedLibraryPath(sharedLibrary)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}
	envRefs++
	return nil
}

func releaseEnvironment() error {
	envMu.Lock()
	defer envMu.Unlock()

	envRefs--
	if envRefs > 0 {
		return nil
	}
	envRefs = 0
	return ort.DestroyEnvironment()
}

type onnxClassifier struct {
	session  *ort.DynamicAdvancedSession
	meta     Metadata
	released bool
}

func openONNX(modelPath, sharedLibrary string, meta Metadata) (*onnxClassifier, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
	}
	if err := acquireEnvironment(sharedLibrary); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{meta.InputName}, []string{meta.OutputName}, nil)
	if err != nil {
		releaseEnvironment()
		return nil, fmt.Errorf("%w: failed to create ONNX session: %w", ErrModelLoad, err)
	}

	log.Debug().
		Str("model", modelPath).
		Ints64("input_shape", meta.InputShape).
		Ints64("output_shape", meta.OutputShape).
		Msg("onnx session created")

	return &onnxClassifier{session: session, meta: meta}, nil
}

func (c *onnxClassifier) Metadata() Metadata { return c.meta }

// Infer binds fresh input and output tensors for this call only; both are
// destroyed before returning.
func (c *onnxClassifier) Infer(in tensor.Input) ([]float32, error) {
	if c.released {
		return nil, ErrUseAfterRelease
	}
	if err := checkInput(c.meta, in); err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(in.Shape...), in.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create input tensor: %w", ErrInference, err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(c.meta.OutputShape...))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create output tensor: %w", ErrInference, err)
	}
	defer outputTensor.Destroy()

	if err := c.session.Run([]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInference, err)
	}

	out := outputTensor.GetData()
	scores := make([]float32, len(out))
	copy(scores, out)
	return scores, nil
}

func (c *onnxClassifier) Release() error {
	if c.released {
		return ErrUseAfterRelease
	}
	c.released = true

	var err error
	if c.session != nil {
		err = c.session.Destroy()
	}
	if envErr := releaseEnvironment(); err == nil {
		err = envErr
	}
	return err
}
