package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leapstack-labs/leapmodel/internal/cli/output"
	"github.com/leapstack-labs/leapmodel/internal/emit"
	"github.com/leapstack-labs/leapmodel/internal/engine"
	"github.com/leapstack-labs/leapmodel/internal/state"
	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/spf13/cobra"
)

// BuildOptions controls a build.
type BuildOptions struct {
	// DumpOut receives the state dump when resolution exceeds the pass ceiling.
	DumpOut string
	// NoHistory skips recording the run in the state database.
	NoHistory bool
	// SkipEmit resolves without writing outputs.
	SkipEmit bool
}

// BuildReport is the outcome of a successful build.
type BuildReport struct {
	RunID   string
	Files   []string
	Result  *engine.Result
	Written []emit.Written
}

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	var opts BuildOptions

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Resolve the model and write all outputs",
		Long: `Load every model file, resolve all directives and write the configured outputs.

Each build is recorded in the state database. When resolution does not
converge, the full processing state is stored with the run and can be
printed with 'leapmodel history --dump <run-id>'.

Nothing is written when any step fails.`,
		Example: `  # Build with leapmodel.yaml in the current project
  leapmodel build

  # Build specific inputs
  leapmodel build --input models/users.yaml --input diagrams/export.csv

  # Keep a copy of the state dump on failure
  leapmodel build --dump-out .leapmodel/last-dump.json`,
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			report, err := cmdCtx.Build(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return renderBuild(cmdCtx, report)
		},
	}

	cmd.Flags().StringVar(&opts.DumpOut, "dump-out", "", "Write the state dump to this file when resolution fails")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Do not record the run in the state database")

	return cmd
}

// Build loads, resolves and emits the model, recording the run unless
// opts.NoHistory is set.
func (c *CommandContext) Build(ctx context.Context, opts BuildOptions) (report *BuildReport, err error) {
	reg, err := c.Directives()
	if err != nil {
		return nil, err
	}
	files, err := c.Files()
	if err != nil {
		return nil, err
	}
	report = &BuildReport{Files: files}

	var store *state.SQLiteStore
	var run *state.Run
	if !opts.NoHistory {
		store, err = c.OpenStore()
		if err != nil {
			return nil, err
		}
		defer func() { _ = store.Close() }()

		inputs := make([]string, len(files))
		for i, f := range files {
			inputs[i] = c.relPath(f)
		}
		run, err = store.CreateRun(ctx, strings.Join(inputs, ","))
		if err != nil {
			return nil, err
		}
		report.RunID = run.ID
		defer func() { c.finishRun(ctx, store, run, report, err) }()
	}

	dumper := func(ctx context.Context, snap *engine.Snapshot) error {
		data, err := snap.JSON()
		if err != nil {
			return err
		}
		if opts.DumpOut != "" {
			if err := writeDump(opts.DumpOut, data); err != nil {
				return err
			}
			c.Logger.Info("state dump written", slog.String("path", opts.DumpOut))
		}
		if store != nil {
			return store.SaveDump(ctx, run.ID, data)
		}
		return nil
	}

	entities, err := c.LoadEntities(ctx, reg)
	if err != nil {
		return nil, err
	}

	res, err := c.NewEngine(reg, dumper).Resolve(ctx, entities)
	if err != nil {
		return nil, err
	}
	report.Result = res

	if opts.SkipEmit {
		return report, nil
	}

	written, err := emit.Run(ctx, emit.Default(), c.Cfg.Targets(), res.Entities, c.Logger)
	if err != nil {
		return nil, err
	}
	report.Written = written
	return report, nil
}

// finishRun records the outcome of run and prunes old history.
func (c *CommandContext) finishRun(ctx context.Context, store *state.SQLiteStore, run *state.Run, report *BuildReport, runErr error) {
	ctx = context.WithoutCancel(ctx)

	res := state.RunResult{Status: state.RunStatusSucceeded}
	if report != nil && report.Result != nil {
		res.Passes = report.Result.Passes
		res.EntityCount = len(report.Result.Entities)
	}
	if runErr != nil {
		res.Status = state.RunStatusFailed
		if errors.Is(runErr, context.Canceled) {
			res.Status = state.RunStatusCanceled
		}
		res.Error = runErr.Error()
		var mp *core.MaxPassesError
		if errors.As(runErr, &mp) {
			res.Passes = mp.MaxPasses
		}
	}

	if err := store.CompleteRun(ctx, run.ID, res); err != nil {
		c.Logger.Warn("failed to record run", slog.String("run", run.ID), slog.String("error", err.Error()))
		return
	}
	if c.Cfg.HistoryLimit > 0 {
		if n, err := store.PruneRuns(ctx, c.Cfg.HistoryLimit); err != nil {
			c.Logger.Warn("failed to prune history", slog.String("error", err.Error()))
		} else if n > 0 {
			c.Logger.Debug("pruned run history", slog.Int64("runs", n))
		}
	}
}

func writeDump(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create dump directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state dump: %w", err)
	}
	return nil
}

func renderBuild(c *CommandContext, report *BuildReport) error {
	r := c.Renderer
	res := report.Result

	if r.EffectiveMode() == output.ModeJSON {
		out := output.BuildOutput{
			RunID:    report.RunID,
			Entities: len(res.Entities),
			Passes:   res.Passes,
			Duration: res.Duration.Round(time.Millisecond).String(),
			Files:    make([]output.WrittenFile, 0, len(report.Written)),
		}
		for _, w := range report.Written {
			out.Files = append(out.Files, output.WrittenFile{Type: w.Target.Type, Path: w.Target.Path, Bytes: w.Bytes})
		}
		return r.JSON(out)
	}

	summary := fmt.Sprintf("Resolved %d entities from %d files in %d passes (%s)",
		len(res.Entities), len(report.Files), res.Passes, res.Duration.Round(time.Millisecond))

	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatHeader(1, "Build"))
		r.Println("")
		r.Println(summary)
		r.Println("")
		for _, w := range report.Written {
			r.Printf("- %s %s (%d bytes)\n", w.Target.Type, output.FormatCode(c.relPath(w.Target.Path)), w.Bytes)
		}
		if report.RunID != "" {
			r.Println("")
			r.Println(output.FormatKeyValue("Run", report.RunID))
		}
		return nil
	}

	r.Success(summary)
	for _, w := range report.Written {
		r.StatusLine(true, c.relPath(w.Target.Path), fmt.Sprintf("%s, %d bytes", w.Target.Type, w.Bytes))
	}
	if len(report.Written) == 0 {
		r.Muted("No outputs configured")
	}
	if report.RunID != "" {
		r.Muted("run " + report.RunID)
	}
	return nil
}
