package session

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/Brownie44l1/digit-canvas/internal/model"
)

// LogSink writes each readout as a log line.
type LogSink struct {
	Logger zerolog.Logger
}

func (l LogSink) Publish(resp *model.PredictionResponse) {
	l.Logger.Info().
		Int("digit", resp.Digit).
		Float32("confidence", resp.Confidence).
		Msgf("Pred: %d", resp.Digit)
}

func (l LogSink) Fail(err error) {
	l.Logger.Error().Err(err).Msg("Pred: failed")
}

// TextSink prints the readout the way a display label shows it.
type TextSink struct {
	W io.Writer
}

func (t TextSink) Publish(resp *model.PredictionResponse) {
	fmt.Fprintf(t.W, "Pred: %d\n", resp.Digit)
}

func (t TextSink) Fail(err error) {
	fmt.Fprintf(t.W, "Pred: failed (%v)\n", err)
}
