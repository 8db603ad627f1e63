package session

import (
	"fmt"
	"math"
	"strings"

	"github.com/Brownie44l1/digit-canvas/internal/pointer"
)

type EventKind int

const (
	Press EventKind = iota + 1
	Drag
	Release
)

func (k EventKind) String() string {
	switch k {
	case Press:
		return "press"
	case Drag:
		return "drag"
	case Release:
		return "release"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

func ParseEventKind(s string) (EventKind, error) {
	switch strings.ToLower(s) {
	case "press", "down":
		return Press, nil
	case "drag", "move":
		return Drag, nil
	case "release", "up":
		return Release, nil
	}
	return 0, fmt.Errorf("unknown event type %q", s)
}

// Event is one pointer event. Ray is nil when the event carries no position.
type Event struct {
	Kind EventKind
	Ray  *pointer.Ray
}

// ScreenEvent builds an event for a flat 2D host at screen position (x, y).
func ScreenEvent(kind EventKind, x, y float64) Event {
	ray := pointer.ScreenRay(x, y)
	return Event{Kind: kind, Ray: &ray}
}

// MaxLineSegments bounds how finely DragLine splits one line.
const MaxLineSegments = 4096

// DragLine interpolates drag events from (x0, y0) to (x1, y1), at most step
// apart, both ends included. Lines longer than MaxLineSegments steps are
// split into MaxLineSegments equal segments instead.
func DragLine(x0, y0, x1, y1, step float64) []Event {
	if !(step > 0) {
		step = 1
	}
	n := MaxLineSegments
	if d := math.Ceil(math.Hypot(x1-x0, y1-y0) / step); d <= MaxLineSegments {
		n = int(d)
	}
	events := make([]Event, 0, n+1)
	for i := 0; i <= n; i++ {
		t := 1.0
		if n > 0 {
			t = float64(i) / float64(n)
		}
		events = append(events, ScreenEvent(Drag, x0+(x1-x0)*t, y0+(y1-y0)*t))
	}
	return events
}
