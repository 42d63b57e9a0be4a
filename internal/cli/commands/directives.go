package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapmodel/internal/cli/output"
	"github.com/leapstack-labs/leapmodel/pkg/directive"
	"github.com/spf13/cobra"
)

// NewDirectivesCommand creates the directives command.
func NewDirectivesCommand() *cobra.Command {
	var showAliases bool

	cmd := &cobra.Command{
		Use:   "directives",
		Short: "List available directives",
		Long: `List the built-in directives and those defined by .star files in the
directives directory. With --aliases, list the alias table applied to op text
before parsing.`,
		Example: `  # List directives
  leapmodel directives

  # As JSON
  leapmodel directives --output json

  # Show aliases
  leapmodel directives --aliases`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			if showAliases {
				return renderAliases(cmdCtx)
			}
			reg, err := cmdCtx.Directives()
			if err != nil {
				return err
			}

			defs := reg.Definitions()
			r := cmdCtx.Renderer
			switch r.EffectiveMode() {
			case output.ModeJSON:
				infos := make([]output.DirectiveInfo, 0, len(defs))
				for _, d := range defs {
					infos = append(infos, output.DirectiveInfo{
						Name:    d.Name,
						Usage:   d.Usage,
						Summary: d.Summary,
						Origin:  cmdCtx.relPath(d.Origin),
					})
				}
				return r.JSON(infos)
			case output.ModeMarkdown:
				r.Println(output.FormatHeader(1, fmt.Sprintf("Directives (%d total)", len(defs))))
				r.Println("")
				r.Println(directiveTable(cmdCtx, defs).RenderMarkdown())
			default:
				r.Header(1, fmt.Sprintf("Directives (%d total)", len(defs)))
				t := directiveTable(cmdCtx, defs)
				t.SetStyle(table.StyleLight)
				r.Println(t.Render())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showAliases, "aliases", false, "List directive aliases instead")

	return cmd
}

func renderAliases(c *CommandContext) error {
	aliases := c.Aliases().Table()
	infos := make([]output.AliasInfo, 0, len(aliases))
	for alias, expansion := range aliases {
		infos = append(infos, output.AliasInfo{Alias: alias, Expansion: expansion})
	}
	slices.SortFunc(infos, func(a, b output.AliasInfo) int {
		return strings.Compare(a.Alias, b.Alias)
	})

	r := c.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(infos)
	}

	t := aliasTable(infos)
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatHeader(1, fmt.Sprintf("Aliases (%d total)", len(infos))))
		r.Println("")
		r.Println(t.RenderMarkdown())
		return nil
	}
	r.Header(1, fmt.Sprintf("Aliases (%d total)", len(infos)))
	t.SetStyle(table.StyleLight)
	r.Println(t.Render())
	return nil
}

func aliasTable(infos []output.AliasInfo) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Alias", "Expansion"})
	for _, a := range infos {
		t.AppendRow(table.Row{a.Alias, a.Expansion})
	}
	return t
}

func directiveTable(c *CommandContext, defs []directive.Definition) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Directive", "Usage", "Summary", "Origin"})
	for _, d := range defs {
		summary, _, _ := strings.Cut(strings.TrimSpace(d.Summary), "\n")
		t.AppendRow(table.Row{"@" + d.Name, d.Usage, summary, c.relPath(d.Origin)})
	}
	return t
}
