package shell

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/digit-canvas/internal/canvas"
	"github.com/Brownie44l1/digit-canvas/internal/config"
	"github.com/Brownie44l1/digit-canvas/internal/model/modeltest"
	"github.com/Brownie44l1/digit-canvas/internal/session"
)

func newCtxt(t *testing.T) (*ShellCtxt, *bytes.Buffer) {
	t.Helper()
	opts := modeltest.WriteGolden(t)
	cfg := config.Default()
	cfg.Model.Backend = opts.Backend
	cfg.Model.Path = opts.ModelPath
	cfg.Model.Metadata = opts.MetadataPath

	sess, err := session.Open(cfg, session.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })

	var out bytes.Buffer
	return NewShellCtxt(sess, session.TextSink{W: &out}), &out
}

func TestHandleReadout(t *testing.T) {
	ctx, out := newCtxt(t)
	ctx.sess.SetBrushWidth(10)

	require.NoError(t, ctx.Handle(
		session.Event{Kind: session.Press},
		session.ScreenEvent(session.Drag, 14, 14),
		session.Event{Kind: session.Release},
	))
	assert.Equal(t, "Pred: 7\n", out.String())
	assert.Equal(t, "[idle brush=10]>", ctx.prompt())
}

func TestPrompt(t *testing.T) {
	ctx, _ := newCtxt(t)
	require.NoError(t, ctx.Handle(session.Event{Kind: session.Press}))
	assert.Equal(t, "[drawing brush=2]>", ctx.prompt())
}

func TestPointEvent(t *testing.T) {
	ev, err := pointEvent(session.Press, nil, true)
	require.NoError(t, err)
	assert.Nil(t, ev.Ray)

	_, err = pointEvent(session.Drag, nil, false)
	assert.ErrorIs(t, err, ErrUsage)

	ev, err = pointEvent(session.Drag, []string{"3", "4.5"}, false)
	require.NoError(t, err)
	require.NotNil(t, ev.Ray)
	assert.Equal(t, 3.0, ev.Ray.Origin.X)
	assert.Equal(t, 4.5, ev.Ray.Origin.Y)

	_, err = pointEvent(session.Drag, []string{"3", "y"}, false)
	assert.ErrorIs(t, err, ErrUsage)
}

func TestRender(t *testing.T) {
	c, err := canvas.New(4, 3)
	require.NoError(t, err)
	c.Stroke(canvas.Point{X: 1, Y: 1}, 1)

	got := Render(c)
	assert.Equal(t, strings.Join([]string{"....", ".#..", "....", ""}, "\n"), got)
}
