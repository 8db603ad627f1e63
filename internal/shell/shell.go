// Package shell hosts a drawing session behind an interactive prompt. Each
// command is one pointer event, handled to completion before the prompt
// returns.
package shell

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/Brownie44l1/digit-canvas/internal/canvas"
	"github.com/Brownie44l1/digit-canvas/internal/session"
)

var ErrUsage = errors.New("usage")

type ShellCtxt struct {
	sess *session.Session
	sink session.Sink
}

func NewShellCtxt(sess *session.Session, sink session.Sink) *ShellCtxt {
	return &ShellCtxt{sess: sess, sink: sink}
}

func (ctx *ShellCtxt) prompt() string {
	state := "idle"
	if ctx.sess.Drawing() {
		state = "drawing"
	}
	return fmt.Sprintf("[%s brush=%g]>", state, ctx.sess.BrushWidth())
}

// Handle applies events in order and publishes a release's readout.
func (ctx *ShellCtxt) Handle(events ...session.Event) error {
	for _, ev := range events {
		resp, err := ctx.sess.Handle(ev)
		if err != nil {
			if !session.Fatal(err) {
				ctx.sink.Fail(err)
				continue
			}
			return err
		}
		if resp != nil {
			ctx.sink.Publish(resp)
		}
	}
	return nil
}

// RunShell registers the drawing commands on a new shell and blocks until
// the user exits.
func RunShell(ctx *ShellCtxt) {
	shell := ishell.New()
	shell.SetPrompt(ctx.prompt())

	shell.AddCmd(pressCmd(ctx))
	shell.AddCmd(dragCmd(ctx))
	shell.AddCmd(lineCmd(ctx))
	shell.AddCmd(releaseCmd(ctx))
	shell.AddCmd(clearCmd(ctx))
	shell.AddCmd(brushCmd(ctx))
	shell.AddCmd(showCmd(ctx))
	shell.AddCmd(saveCmd(ctx))

	shell.Println("draw a digit: press [x y], drag x y, line x0 y0 x1 y1, release")
	shell.Run()
	shell.Close()
}

func parseFloats(args []string, n int) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%w: expected %d numbers, got %d", ErrUsage, n, len(args))
	}
	out := make([]float64, n)
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrUsage, a)
		}
		out[i] = v
	}
	return out, nil
}

// Render draws the canvas as text, one character per cell.
func Render(c *canvas.Canvas) string {
	var sb strings.Builder
	sb.Grow((c.Width() + 1) * c.Height())
	for y := 0; y < c.Height(); y++ {
		for x := 0; x < c.Width(); x++ {
			if c.At(x, y) >= 0.5 {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
