package session

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/Brownie44l1/digit-canvas/internal/tensor"
)

// Script is a recorded stroke sequence:
//
//	width: 28
//	height: 28
//	brush: 10
//	events:
//	  - {type: press}
//	  - {type: drag, x: 14, y: 14}
//	  - {type: release}
//
// Coordinates are screen coordinates over the canvas, one unit per cell.
type Script struct {
	Width  int           `yaml:"width"`
	Height int           `yaml:"height"`
	Brush  float64       `yaml:"brush"`
	Events []ScriptEvent `yaml:"events"`
}

type ScriptEvent struct {
	Type string   `yaml:"type"`
	X    *float64 `yaml:"x,omitempty"`
	Y    *float64 `yaml:"y,omitempty"`
	// ToX and ToY turn a drag into a straight line of drags.
	ToX *float64 `yaml:"to_x,omitempty"`
	ToY *float64 `yaml:"to_y,omitempty"`
}

func LoadScript(path string) (*Script, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return ParseScript(raw)
}

func ParseScript(raw []byte) (*Script, error) {
	var s Script
	if err := yaml.UnmarshalStrict(raw, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if _, err := s.Expand(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Expand turns the script into pointer events.
func (s *Script) Expand() ([]Event, error) {
	events := make([]Event, 0, len(s.Events))
	for i, se := range s.Events {
		kind, err := ParseEventKind(se.Type)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		if (se.X == nil) != (se.Y == nil) {
			return nil, fmt.Errorf("event %d: x and y must be given together", i)
		}
		if (se.ToX == nil) != (se.ToY == nil) || (se.ToX != nil && (kind != Drag || se.X == nil)) {
			return nil, fmt.Errorf("event %d: to_x/to_y need a drag with x and y", i)
		}

		switch {
		case se.ToX != nil:
			step := s.Brush / 2
			events = append(events, DragLine(*se.X, *se.Y, *se.ToX, *se.ToY, step)...)
		case se.X != nil:
			events = append(events, ScreenEvent(kind, *se.X, *se.Y))
		default:
			events = append(events, Event{Kind: kind})
		}
	}
	return events, nil
}

// Replay feeds the script through sess.Run. A script that declares a canvas
// size must match the session's canvas.
func (s *Script) Replay(ctx context.Context, sess *Session, sink Sink) error {
	c := sess.Canvas()
	if (s.Width != 0 && s.Width != c.Width()) || (s.Height != 0 && s.Height != c.Height()) {
		return fmt.Errorf("%w: script is %dx%d, canvas is %dx%d",
			tensor.ErrShapeMismatch, s.Width, s.Height, c.Width(), c.Height())
	}
	if s.Brush > 0 {
		sess.SetBrushWidth(s.Brush)
	}

	events, err := s.Expand()
	if err != nil {
		return err
	}

	queue := make(chan Event, len(events))
	for _, ev := range events {
		queue <- ev
	}
	close(queue)
	return sess.Run(ctx, queue, sink)
}
