package model

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/Brownie44l1/digit-canvas/internal/tensor"
)

// Server shares one classifier between concurrent callers. Inference calls
// are serialised, and the classifier is released exactly once by Close.
type Server struct {
	Metadata Metadata

	classifier Classifier
	desc       tensor.InputDesc
	sem        *semaphore.Weighted
	closeOnce  sync.Once
	closeErr   error
}

func NewServer(opts Options) (*Server, error) {
	classifier, err := Load(opts)
	if err != nil {
		return nil, err
	}
	return NewServerFor(classifier)
}

// NewServerFor wraps an already loaded classifier. The server takes
// ownership of it.
func NewServerFor(classifier Classifier) (*Server, error) {
	meta := classifier.Metadata()
	desc, err := meta.InputDesc()
	if err != nil {
		classifier.Release()
		return nil, fmt.Errorf("%w: %w", ErrModelLoad, err)
	}

	return &Server{
		Metadata:   meta,
		classifier: classifier,
		desc:       desc,
		sem:        semaphore.NewWeighted(1),
	}, nil
}

// InputDesc is the input layout callers must pack for.
func (s *Server) InputDesc() tensor.InputDesc { return s.desc }

// Infer satisfies the same contract as Classifier.Infer for callers sharing
// the server.
func (s *Server) Infer(in tensor.Input) ([]float32, error) {
	if err := s.sem.Acquire(context.Background(), 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	return s.classifier.Infer(in)
}

// Predict packs a flat pixel array and classifies it.
func (s *Server) Predict(ctx context.Context, inputData []float32) (*PredictionResponse, error) {
	in, err := tensor.FromValues(inputData, s.desc)
	if err != nil {
		return nil, err
	}
	return s.Classify(ctx, in)
}

func (s *Server) Classify(ctx context.Context, in tensor.Input) (*PredictionResponse, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	return Classify(s.classifier, s.Metadata, in)
}

// Close waits for the inference in flight, then releases the classifier.
// Calls made after Close fail with ErrUseAfterRelease.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		if err := s.sem.Acquire(context.Background(), 1); err != nil {
			s.closeErr = err
			return
		}
		defer s.sem.Release(1)
		s.closeErr = s.classifier.Release()
	})
	return s.closeErr
}
