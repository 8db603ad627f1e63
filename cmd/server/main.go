package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Brownie44l1/digit-canvas/internal/config"
	"github.com/Brownie44l1/digit-canvas/internal/handlers"
	"github.com/Brownie44l1/digit-canvas/internal/model"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	cfg.Log.Setup()

	// If running from cmd/server, resolve model paths from the project root
	if wd, err := os.Getwd(); err == nil && filepath.Base(wd) == "server" {
		root := filepath.Join(wd, "../..")
		if !filepath.IsAbs(cfg.Model.Path) {
			cfg.Model.Path = filepath.Join(root, cfg.Model.Path)
		}
		if !filepath.IsAbs(cfg.Model.Metadata) {
			cfg.Model.Metadata = filepath.Join(root, cfg.Model.Metadata)
		}
	}

	log.Info().Str("model", cfg.Model.Path).Str("backend", cfg.Model.Backend).Msg("loading model")

	modelServer, err := model.NewServer(cfg.ModelOptions())
	if err != nil {
		log.Fatal().Err(err).Msg("initialize model server")
	}
	defer modelServer.Close()

	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(gin.Recovery(), handlers.CORS())
	h := handlers.NewHandler(modelServer, cfg.Canvas.BrushWidth, cfg.Server.MaxCanvases)
	h.Register(e)

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: e}

	log.Info().
		Str("port", cfg.Server.Port).
		Strs("classes", modelServer.Metadata.Classes).
		Msg("server starting")

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("run server")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Err(err).Msg("shutdown server")
	}
	h.Close()
}
