package commands

import (
	"fmt"

	"github.com/leapstack-labs/leapmodel/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	var dumpOut string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Resolve the model without writing outputs",
		Long: `Load and resolve every model file, reporting the first error.

No outputs are written and the run is not recorded in history. Use it in
CI or editors to validate model changes.`,
		Example: `  # Validate the model
  leapmodel check

  # Machine readable result
  leapmodel check --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			r := cmdCtx.Renderer

			report, err := cmdCtx.Build(cmd.Context(), BuildOptions{DumpOut: dumpOut, NoHistory: true, SkipEmit: true})
			if r.EffectiveMode() == output.ModeJSON {
				out := output.CheckOutput{OK: err == nil}
				if err != nil {
					out.Error = err.Error()
				} else {
					out.Files = len(report.Files)
					out.Entities = len(report.Result.Entities)
					out.Passes = report.Result.Passes
				}
				if jerr := r.JSON(out); jerr != nil {
					return jerr
				}
				return err
			}
			if err != nil {
				return err
			}

			r.Success(fmt.Sprintf("%d entities from %d files resolved in %d passes",
				len(report.Result.Entities), len(report.Files), report.Result.Passes))
			return nil
		},
	}

	cmd.Flags().StringVar(&dumpOut, "dump-out", "", "Write the state dump to this file when resolution fails")

	return cmd
}
