// Package config loads leapmodel.yaml, LEAPMODEL_ environment variables and
// command line flags into a single Config.
//
// Precedence, highest first: flags, environment, config file, defaults.
// Relative paths are resolved against the project root, the nearest
// directory at or above the working directory holding a config file.
package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapmodel/internal/engine"
	"github.com/leapstack-labs/leapmodel/internal/parser"
)

// Config file names, in lookup order.
const (
	ConfigFileName    = "leapmodel.yaml"
	ConfigFileNameAlt = "leapmodel.yml"
)

// Default configuration values.
const (
	DefaultModelsDir     = "models"
	DefaultDirectivesDir = "directives"
	DefaultStateFile     = ".leapmodel/state.db"
	DefaultOutput        = "auto"
	DefaultLogFormat     = "text"
	DefaultHistoryLimit  = 100
	DefaultWatchDebounce = 300 * time.Millisecond
	DefaultMaxPasses     = engine.DefaultMaxPasses
	DefaultAliasPasses   = parser.DefaultMaxAliasPasses
)

// Config holds all configuration options.
type Config struct {
	// ProjectRoot is the directory relative paths were resolved against.
	ProjectRoot string `koanf:"-"`
	// ConfigFile is the file that was loaded, if any.
	ConfigFile string `koanf:"-"`

	ModelsDir     string   `koanf:"models_dir"`
	Inputs        []string `koanf:"inputs"`
	DirectivesDir string   `koanf:"directives_dir"`
	StatePath     string   `koanf:"state_path"`
	HistoryLimit  int      `koanf:"history_limit"`

	MaxPasses      int               `koanf:"max_passes"`
	MaxAliasPasses int               `koanf:"max_alias_passes"`
	Aliases        map[string]string `koanf:"aliases"`
	IDHeuristic    IDHeuristicConfig `koanf:"id_heuristic"`

	Outputs []OutputConfig `koanf:"outputs"`

	Verbose       bool          `koanf:"verbose"`
	LogFormat     string        `koanf:"log_format"`
	OutputFormat  string        `koanf:"output"`
	WatchDebounce time.Duration `koanf:"watch_debounce"`
}

// IDHeuristicConfig configures id inference. Empty fields use the built-in
// heuristic.
type IDHeuristicConfig struct {
	Names    []string `koanf:"names"`
	Suffixes []string `koanf:"suffixes"`
	Strip    []string `koanf:"strip"`
}

// Engine converts the config to the engine heuristic.
func (c IDHeuristicConfig) Engine() engine.IDHeuristic {
	return engine.IDHeuristic{Names: c.Names, Suffixes: c.Suffixes, Strip: c.Strip}
}

// OutputConfig is one emitter target.
type OutputConfig struct {
	Type    string            `koanf:"type"`
	Path    string            `koanf:"path"`
	Header  string            `koanf:"header"`
	Options map[string]string `koanf:"options"`
}

// configKey is used to store the config in a command context.
type configKey struct{}

// loggerKey is used to store the logger in a command context.
type loggerKey struct{}

// WithConfig returns a context carrying cfg.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config stored by WithConfig, or nil.
func FromContext(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	return nil
}

// WithLogger returns a context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
