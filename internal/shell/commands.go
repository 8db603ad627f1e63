package shell

import (
	"errors"
	"flag"
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/Brownie44l1/digit-canvas/internal/session"
)

func pressCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "press",
		Help: "clear the canvas and start drawing, optionally at x y",
		Func: func(c *ishell.Context) {
			ev, err := pointEvent(session.Press, c.Args, true)
			if err != nil {
				c.Err(err)
				return
			}
			if err := ctx.Handle(ev); err != nil {
				c.Err(err)
			}
			c.SetPrompt(ctx.prompt())
		},
	}
}

func dragCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "drag",
		Help: "paint one brush stroke at x y",
		Func: func(c *ishell.Context) {
			ev, err := pointEvent(session.Drag, c.Args, false)
			if err != nil {
				c.Err(err)
				return
			}
			if err := ctx.Handle(ev); err != nil {
				c.Err(err)
			}
		},
	}
}

func lineCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name:     "line",
		Help:     "drag in a straight line from x0 y0 to x1 y1",
		LongHelp: "Usage: line x0 y0 x1 y1",
		Func: func(c *ishell.Context) {
			v, err := parseFloats(c.Args, 4)
			if err != nil {
				c.Err(err)
				return
			}
			events := session.DragLine(v[0], v[1], v[2], v[3], ctx.sess.BrushWidth()/2)
			if err := ctx.Handle(events...); err != nil {
				c.Err(err)
			}
		},
	}
}

func releaseCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "release",
		Help: "stop drawing and classify the canvas",
		Func: func(c *ishell.Context) {
			if err := ctx.Handle(session.Event{Kind: session.Release}); err != nil {
				c.Err(err)
			}
			c.SetPrompt(ctx.prompt())
		},
	}
}

func clearCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "clear",
		Help: "wipe the canvas",
		Func: func(c *ishell.Context) {
			ctx.sess.Canvas().Clear()
			c.Println("OK")
		},
	}
}

func brushCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "brush",
		Help: "show or set the brush width",
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Printf("brush width: %g\n", ctx.sess.BrushWidth())
				return
			}
			v, err := parseFloats(c.Args, 1)
			if err != nil {
				c.Err(err)
				return
			}
			if v[0] <= 0 {
				c.Err(errors.New("brush width must be positive"))
				return
			}
			ctx.sess.SetBrushWidth(v[0])
			c.SetPrompt(ctx.prompt())
		},
	}
}

func showCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "show",
		Help: "print the canvas",
		Func: func(c *ishell.Context) {
			c.Print(Render(ctx.sess.Canvas()))
		},
	}
}

func saveCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name:     "save",
		Help:     "write the canvas texture to a PNG file",
		LongHelp: "Usage: save [-scale N] <file.png>",
		Func: func(c *ishell.Context) {
			flagSet := flag.NewFlagSet("save", flag.ContinueOnError)
			scale := flagSet.Int("scale", 10, "pixels per canvas cell")
			if err := flagSet.Parse(c.Args); err != nil {
				if err != flag.ErrHelp {
					c.Err(err)
				}
				return
			}

			argRest := flagSet.Args()
			if len(argRest) != 1 {
				c.Err(errors.New("missing destination file"))
				return
			}

			if err := ctx.sess.Canvas().SaveTexture(argRest[0], *scale); err != nil {
				c.Err(err)
				return
			}
			c.Println(fmt.Sprintf("saved %s", argRest[0]))
		},
	}
}

// pointEvent builds an event from "x y" arguments. optional allows the
// position to be left out.
func pointEvent(kind session.EventKind, args []string, optional bool) (session.Event, error) {
	if optional && len(args) == 0 {
		return session.Event{Kind: kind}, nil
	}
	v, err := parseFloats(args, 2)
	if err != nil {
		return session.Event{}, err
	}
	return session.ScreenEvent(kind, v[0], v[1]), nil
}
