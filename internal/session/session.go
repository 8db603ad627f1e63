// Package session drives one drawing surface: pointer events paint the
// canvas and releasing the pointer classifies the drawing.
//
// A Session is single-threaded. Events are handled to completion one at a
// time, either directly through Handle or by Run draining a channel.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Brownie44l1/digit-canvas/internal/canvas"
	"github.com/Brownie44l1/digit-canvas/internal/config"
	"github.com/Brownie44l1/digit-canvas/internal/model"
	"github.com/Brownie44l1/digit-canvas/internal/pointer"
	"github.com/Brownie44l1/digit-canvas/internal/tensor"
)

const DefaultBrushWidth = 2

type Session struct {
	canvas *canvas.Canvas
	clf    model.Inferer
	meta   model.Metadata
	desc   tensor.InputDesc
	mapper pointer.Mapper
	brush  float64
	logger zerolog.Logger

	drawing bool
	owned   model.Classifier
	closed  bool
}

type Option func(*Session)

func WithMapper(m pointer.Mapper) Option {
	return func(s *Session) { s.mapper = m }
}

func WithBrushWidth(w float64) Option {
	return func(s *Session) { s.brush = w }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New builds a session around a classifier it does not own. The canvas must
// match the classifier's declared input size.
func New(c *canvas.Canvas, clf model.Inferer, meta model.Metadata, opts ...Option) (*Session, error) {
	desc, err := meta.InputDesc()
	if err != nil {
		return nil, err
	}
	if c.Width() != desc.Width || c.Height() != desc.Height {
		return nil, fmt.Errorf("%w: canvas is %dx%d, model expects %dx%d",
			tensor.ErrShapeMismatch, c.Width(), c.Height(), desc.Width, desc.Height)
	}

	s := &Session{
		canvas: c,
		clf:    clf,
		meta:   meta,
		desc:   desc,
		mapper: pointer.ScreenSurface(c.Width(), c.Height()),
		brush:  DefaultBrushWidth,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open loads the configured model and canvas. The session owns the model and
// releases it on Close.
func Open(cfg config.Config, opts ...Option) (*Session, error) {
	c, err := newCanvas(cfg.Canvas)
	if err != nil {
		return nil, err
	}

	clf, err := model.Load(cfg.ModelOptions())
	if err != nil {
		return nil, err
	}

	opts = append([]Option{WithBrushWidth(cfg.Canvas.BrushWidth)}, opts...)
	s, err := New(c, clf, clf.Metadata(), opts...)
	if err != nil {
		clf.Release()
		return nil, err
	}
	s.owned = clf

	s.logger.Info().
		Str("model", cfg.Model.Path).
		Str("backend", cfg.Model.Backend).
		Int("width", c.Width()).
		Int("height", c.Height()).
		Msg("session opened")
	return s, nil
}

func newCanvas(cfg config.Canvas) (*canvas.Canvas, error) {
	if cfg.Seed == "" {
		return canvas.New(cfg.Width, cfg.Height)
	}

	f, err := os.Open(cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to open canvas seed: %w", err)
	}
	defer f.Close()

	seed, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode canvas seed: %w", err)
	}
	return canvas.FromTexture(seed)
}

func (s *Session) Canvas() *canvas.Canvas { return s.canvas }

func (s *Session) BrushWidth() float64 { return s.brush }

func (s *Session) SetBrushWidth(w float64) { s.brush = w }

// Handle applies one event. Release returns the classification; the other
// events return a nil response.
func (s *Session) Handle(ev Event) (*model.PredictionResponse, error) {
	switch ev.Kind {
	case Press:
		s.canvas.Clear()
		s.drawing = true
		s.paint(ev)
		return nil, nil
	case Drag:
		s.paint(ev)
		return nil, nil
	case Release:
		s.drawing = false
		return s.Classify()
	}
	return nil, fmt.Errorf("unknown event %v", ev.Kind)
}

func (s *Session) paint(ev Event) {
	if ev.Ray == nil {
		return
	}
	p, ok := s.mapper.MapPointer(*ev.Ray)
	if !ok {
		return
	}
	s.canvas.Stroke(p, s.brush)
}

// Drawing reports whether a press has not been released yet.
func (s *Session) Drawing() bool { return s.drawing }

// Classify runs the classifier on the current drawing.
func (s *Session) Classify() (*model.PredictionResponse, error) {
	if s.closed {
		return nil, model.ErrUseAfterRelease
	}

	in, err := tensor.FromSnapshot(s.canvas.Snapshot(), s.desc)
	if err != nil {
		return nil, err
	}

	resp, err := model.Classify(s.clf, s.meta, in)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Int("digit", resp.Digit).
		Float32("confidence", resp.Confidence).
		Int("inked", s.canvas.Inked()).
		Msg("classified")
	return resp, nil
}

// Sink receives the outcome of every completed release.
type Sink interface {
	Publish(resp *model.PredictionResponse)
	Fail(err error)
}

// Fatal reports whether err must stop the session. Inference failures are
// recoverable: the next drawing may succeed.
func Fatal(err error) bool {
	switch {
	case errors.Is(err, tensor.ErrShapeMismatch),
		errors.Is(err, tensor.ErrEmptyVector),
		errors.Is(err, model.ErrUseAfterRelease):
		return true
	case errors.Is(err, model.ErrInference):
		return false
	}
	return true
}

// Run dispatches events until the channel is closed, ctx is done or a fatal
// error occurs.
func (s *Session) Run(ctx context.Context, events <-chan Event, sink Sink) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			resp, err := s.Handle(ev)
			if err != nil {
				if Fatal(err) {
					return err
				}
				s.logger.Warn().Err(err).Msg("classification failed")
				sink.Fail(err)
				continue
			}
			if resp != nil {
				sink.Publish(resp)
			}
		}
	}
}

// Close releases the model if the session owns it. Further calls are no-ops.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.owned == nil {
		return nil
	}
	return s.owned.Release()
}
