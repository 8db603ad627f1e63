// Package config loads the YAML configuration shared by the digit-canvas
// commands and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v2"

	"github.com/Brownie44l1/digit-canvas/internal/model"
)

var ErrInvalid = errors.New("invalid configuration")

const (
	EnvModel         = "DIGITS_MODEL"
	EnvMetadata      = "DIGITS_METADATA"
	EnvBackend       = "DIGITS_BACKEND"
	EnvSharedLibrary = "ONNXRUNTIME_LIB"
	EnvLogLevel      = "DIGITS_LOG_LEVEL"
	EnvPort          = "PORT"
)

type Config struct {
	Model  Model  `yaml:"model"`
	Canvas Canvas `yaml:"canvas"`
	Server Server `yaml:"server"`
	Log    Log    `yaml:"log"`
}

type Model struct {
	Backend       string `yaml:"backend"`
	Path          string `yaml:"path"`
	Metadata      string `yaml:"metadata"`
	SharedLibrary string `yaml:"shared_library"`
}

// Canvas sizes the drawing surface. When Seed names an image its dimensions
// win over Width and Height.
type Canvas struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Seed       string  `yaml:"seed"`
	BrushWidth float64 `yaml:"brush_width"`
}

type Server struct {
	Port        string `yaml:"port"`
	MaxCanvases int    `yaml:"max_canvases"`
}

type Log struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

func Default() Config {
	return Config{
		Model: Model{
			Backend:  model.BackendONNX,
			Path:     filepath.Join("models", "model_embedded.onnx"),
			Metadata: filepath.Join("models", "model_metadata.json"),
		},
		Canvas: Canvas{Width: 28, Height: 28, BrushWidth: 2},
		Server: Server{Port: "8080", MaxCanvases: 64},
		Log:    Log{Level: "info"},
	}
}

// Load reads path on top of the defaults. An empty path yields the
// defaults. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.UnmarshalStrict(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvModel); v != "" {
		c.Model.Path = v
	}
	if v := os.Getenv(EnvMetadata); v != "" {
		c.Model.Metadata = v
	}
	if v := os.Getenv(EnvBackend); v != "" {
		c.Model.Backend = v
	}
	if v := os.Getenv(EnvSharedLibrary); v != "" {
		c.Model.SharedLibrary = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		c.Server.Port = v
	}
}

func (c Config) Validate() error {
	switch c.Model.Backend {
	case model.BackendONNX, model.BackendLinear:
	default:
		return fmt.Errorf("%w: unknown model backend %q", ErrInvalid, c.Model.Backend)
	}
	if c.Model.Path == "" || c.Model.Metadata == "" {
		return fmt.Errorf("%w: model path and metadata are required", ErrInvalid)
	}
	if c.Canvas.Seed == "" && (c.Canvas.Width <= 0 || c.Canvas.Height <= 0) {
		return fmt.Errorf("%w: canvas size %dx%d", ErrInvalid, c.Canvas.Width, c.Canvas.Height)
	}
	if c.Canvas.BrushWidth <= 0 {
		return fmt.Errorf("%w: brush width must be positive", ErrInvalid)
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("%w: port %q", ErrInvalid, c.Server.Port)
	}
	if c.Server.MaxCanvases <= 0 {
		return fmt.Errorf("%w: max canvases must be positive", ErrInvalid)
	}
	return nil
}

func (c Config) ModelOptions() model.Options {
	return model.Options{
		Backend:       c.Model.Backend,
		ModelPath:     c.Model.Path,
		MetadataPath:  c.Model.Metadata,
		SharedLibrary: c.Model.SharedLibrary,
	}
}
