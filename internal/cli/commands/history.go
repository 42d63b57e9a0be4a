package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapmodel/internal/cli/output"
	"github.com/leapstack-labs/leapmodel/internal/state"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var (
		limit  int
		dumpID string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent builds",
		Long: `Show recent builds recorded in the state database, newest first.

Builds that exceeded the pass ceiling keep a dump of the processing state;
print it with --dump.`,
		Example: `  # Last 20 runs
  leapmodel history

  # Print the state dump of a failed run
  leapmodel history --dump 3f2c...`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			store, err := cmdCtx.OpenStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ctx := cmd.Context()
			r := cmdCtx.Renderer

			if dumpID != "" {
				run, err := store.GetRun(ctx, dumpID)
				if err != nil {
					return err
				}
				dump, err := store.GetDump(ctx, run.ID)
				if errors.Is(err, state.ErrNotFound) {
					return fmt.Errorf("run %s (%s) has no dump", run.ID, run.Status)
				}
				if err != nil {
					return err
				}
				_, err = r.Writer().Write(dump.Content)
				return err
			}

			runs, err := store.ListRuns(ctx, limit)
			if err != nil {
				return err
			}

			switch r.EffectiveMode() {
			case output.ModeJSON:
				infos := make([]output.RunInfo, 0, len(runs))
				for _, run := range runs {
					infos = append(infos, runInfo(run))
				}
				return r.JSON(infos)
			case output.ModeMarkdown:
				r.Println(output.FormatHeader(1, fmt.Sprintf("Runs (%d shown)", len(runs))))
				r.Println("")
				r.Println(runTable(runs).RenderMarkdown())
			default:
				if len(runs) == 0 {
					r.Muted("No runs recorded")
					return nil
				}
				r.Header(1, fmt.Sprintf("Runs (%d shown)", len(runs)))
				t := runTable(runs)
				t.SetStyle(table.StyleLight)
				r.Println(t.Render())
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().StringVar(&dumpID, "dump", "", "Print the state dump of a run")

	return cmd
}

func runInfo(run *state.Run) output.RunInfo {
	info := output.RunInfo{
		ID:          run.ID,
		Status:      string(run.Status),
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		Passes:      run.Passes,
		EntityCount: run.EntityCount,
		Inputs:      run.Inputs,
		Error:       run.Error,
		HasDump:     run.HasDump,
	}
	if run.FinishedAt != nil {
		info.Duration = run.Duration().Round(time.Millisecond).String()
	}
	return info
}

func runTable(runs []*state.Run) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Run", "Started", "Status", "Entities", "Passes", "Duration", "Dump"})
	for _, run := range runs {
		duration := "-"
		if run.FinishedAt != nil {
			duration = run.Duration().Round(time.Millisecond).String()
		}
		dump := ""
		if run.HasDump {
			dump = "yes"
		}
		t.AppendRow(table.Row{
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.Status,
			run.EntityCount,
			run.Passes,
			duration,
			dump,
		})
	}
	return t
}
