// Command paint is the interactive flow: draw a digit from a prompt and get
// the classifier's readout when the pointer is released.
package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/Brownie44l1/digit-canvas/internal/config"
	"github.com/Brownie44l1/digit-canvas/internal/session"
	"github.com/Brownie44l1/digit-canvas/internal/shell"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	cfg.Log.Pretty = true
	cfg.Log.Setup()

	sess, err := session.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open session")
	}
	defer sess.Close()

	shell.RunShell(shell.NewShellCtxt(sess, session.TextSink{W: os.Stdout}))
}
