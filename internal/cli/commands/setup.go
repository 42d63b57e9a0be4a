package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leapmodel/internal/cli/output"
	"github.com/leapstack-labs/leapmodel/internal/config"
	"github.com/leapstack-labs/leapmodel/internal/engine"
	"github.com/leapstack-labs/leapmodel/internal/loader"
	"github.com/leapstack-labs/leapmodel/internal/parser"
	starctx "github.com/leapstack-labs/leapmodel/internal/starlark"
	"github.com/leapstack-labs/leapmodel/internal/state"
	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/leapstack-labs/leapmodel/pkg/directive"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the config and logger
// stored by the root command. Without them it loads the config from the
// working directory.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := config.FromContext(ctx)
	if cfg == nil {
		var err error
		if cfg, err = config.Load("", nil); err != nil {
			return nil, err
		}
	}

	mode := output.Mode(cfg.OutputFormat)
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(ctx),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}, nil
}

// Directives returns the built-in directives plus those loaded from the
// directives directory.
func (c *CommandContext) Directives() (*directive.Registry, error) {
	reg := directive.Default()
	if _, err := starctx.LoadAndRegister(c.Cfg.DirectivesDir, reg, c.Logger); err != nil {
		return nil, err
	}
	return reg, nil
}

// Files returns the model files matched by the configured inputs.
func (c *CommandContext) Files() ([]string, error) {
	return loader.Expand(c.Cfg.Inputs)
}

// Aliases returns the built-in alias table extended by configuration.
func (c *CommandContext) Aliases() *parser.Aliases {
	return parser.NewAliases(c.Cfg.Aliases, c.Cfg.MaxAliasPasses)
}

// LoadEntities parses every configured model file against reg.
func (c *CommandContext) LoadEntities(ctx context.Context, reg *directive.Registry) ([]*core.Entity, error) {
	p := parser.New(reg, c.Aliases()).WithIDNames(c.idHeuristic().Names)
	l := loader.New(p, c.Logger)
	entities, err := l.Load(ctx, c.Cfg.Inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to load models: %w", err)
	}
	return entities, nil
}

// NewEngine creates an engine over reg. dumper may be nil.
func (c *CommandContext) NewEngine(reg *directive.Registry, dumper engine.Dumper) *engine.Engine {
	return engine.New(engine.Config{
		MaxPasses:   c.Cfg.MaxPasses,
		IDHeuristic: c.idHeuristic(),
		Dumper:      dumper,
		Logger:      c.Logger,
	}, reg)
}

// idHeuristic returns the configured id rules, or the defaults when none are set.
func (c *CommandContext) idHeuristic() engine.IDHeuristic {
	h := c.Cfg.IDHeuristic.Engine()
	if h.IsZero() {
		return engine.DefaultIDHeuristic()
	}
	return h
}

// OpenStore opens the run history database, creating its directory.
// The caller must close the store.
func (c *CommandContext) OpenStore() (*state.SQLiteStore, error) {
	if c.Cfg.StatePath != state.MemoryPath {
		stateDir := filepath.Dir(c.Cfg.StatePath)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store := state.NewSQLiteStore(c.Logger)
	if err := store.Open(c.Cfg.StatePath); err != nil {
		return nil, err
	}
	if version, err := store.MigrationVersion(); err == nil {
		c.Logger.Debug("state store opened", slog.String("path", c.Cfg.StatePath), slog.Int64("schema_version", version))
	}
	return store, nil
}

// relPath shortens path relative to the project root for display.
func (c *CommandContext) relPath(path string) string {
	if c.Cfg.ProjectRoot == "" {
		return path
	}
	rel, err := filepath.Rel(c.Cfg.ProjectRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
