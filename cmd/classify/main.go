// Command classify runs the batch flow: one bitmap or one recorded stroke
// script is classified and the readout is logged.
//
//	classify -image digit.png
//	classify -script strokes.yaml -save drawn.png
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/Brownie44l1/digit-canvas/internal/config"
	"github.com/Brownie44l1/digit-canvas/internal/model"
	"github.com/Brownie44l1/digit-canvas/internal/session"
	"github.com/Brownie44l1/digit-canvas/internal/tensor"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	imagePath := flag.String("image", "", "bitmap to classify")
	scriptPath := flag.String("script", "", "stroke script to replay and classify")
	savePath := flag.String("save", "", "write the replayed canvas to this PNG")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	cfg.Log.Pretty = true
	cfg.Log.Setup()

	switch {
	case *imagePath != "" && *scriptPath == "":
		err = classifyImage(cfg, *imagePath)
	case *scriptPath != "" && *imagePath == "":
		err = replayScript(cfg, *scriptPath, *savePath)
	default:
		fmt.Fprintln(os.Stderr, "exactly one of -image or -script is required")
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("classify")
	}
}

func classifyImage(cfg config.Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	clf, err := model.Load(cfg.ModelOptions())
	if err != nil {
		return err
	}
	defer clf.Release()

	meta := clf.Metadata()
	desc, err := meta.InputDesc()
	if err != nil {
		return err
	}

	resp, err := model.Classify(clf, meta, tensor.FromImage(img, desc))
	if err != nil {
		return err
	}
	session.LogSink{Logger: log.Logger}.Publish(resp)
	return nil
}

func replayScript(cfg config.Config, path, savePath string) error {
	script, err := session.LoadScript(path)
	if err != nil {
		return err
	}
	if script.Width > 0 && script.Height > 0 && cfg.Canvas.Seed == "" {
		cfg.Canvas.Width, cfg.Canvas.Height = script.Width, script.Height
	}

	sess, err := session.Open(cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := script.Replay(context.Background(), sess, session.LogSink{Logger: log.Logger}); err != nil {
		return err
	}

	if savePath != "" {
		if err := sess.Canvas().SaveTexture(savePath, 10); err != nil {
			return err
		}
		log.Info().Str("path", savePath).Msg("canvas saved")
	}
	return nil
}
