package commands

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapmodel/internal/cli/output"
	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "list [entity...]",
		Short: "List resolved entities and their properties",
		Long: `Resolve the model and list every entity with its properties.

Output adapts to environment:
  - Terminal: Styled tables
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # List all entities
  leapmodel list

  # Show only some entities
  leapmodel list User Post

  # Only enums, as JSON
  leapmodel list --kind enum --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			report, err := cmdCtx.Build(cmd.Context(), BuildOptions{NoHistory: true, SkipEmit: true})
			if err != nil {
				return err
			}

			entities := filterEntities(report.Result.Entities, args, kind)
			r := cmdCtx.Renderer
			switch r.EffectiveMode() {
			case output.ModeJSON:
				return listJSON(r, entities)
			case output.ModeMarkdown:
				listMarkdown(r, entities)
			default:
				listText(r, entities)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Only list entities of this kind (interface|enum|union|typeDef)")
	_ = cmd.RegisterFlagCompletionFunc("kind", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		kinds := make([]string, len(core.AllKinds))
		for i, k := range core.AllKinds {
			kinds[i] = string(k)
		}
		return kinds, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func filterEntities(entities []*core.Entity, names []string, kind string) []*core.Entity {
	if len(names) == 0 && kind == "" {
		return entities
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []*core.Entity
	for _, e := range entities {
		if len(wanted) > 0 && !wanted[e.Name] {
			continue
		}
		if kind != "" && string(e.Kind) != kind {
			continue
		}
		out = append(out, e)
	}
	return out
}

// propType renders a property type with its markers.
func propType(p *core.Prop) string {
	t := p.TypeName
	if p.Collection {
		t += "[]"
	}
	if p.Nullable {
		t += "?"
	}
	if p.Pointer {
		t = "*" + t
	}
	return t
}

func propFlags(p *core.Prop) string {
	var flags []string
	if p.IsID {
		flags = append(flags, "id")
	}
	if p.Required {
		flags = append(flags, "required")
	}
	if p.QueryPointer {
		flags = append(flags, "query")
	}
	if p.CopySource != nil {
		src := "copy " + p.CopySource.Entity + "." + p.CopySource.Prop
		if p.CopySource.Optional {
			src += " (optional)"
		}
		flags = append(flags, src)
	}
	return output.FormatList(flags)
}

func entityTitle(e *core.Entity) string {
	title := fmt.Sprintf("%s (%s)", e.Name, e.Kind)
	if e.IsTemplate {
		title += " template"
	}
	return title
}

func propTable(e *core.Entity) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Property", "Type", "Sources", "Flags"})
	for _, p := range e.Props {
		t.AppendRow(table.Row{p.Name, propType(p), output.FormatList(p.Sources), propFlags(p)})
	}
	return t
}

// listText outputs entities as styled tables.
func listText(r *output.Renderer, entities []*core.Entity) {
	styles := r.Styles()
	r.Header(1, fmt.Sprintf("Entities (%d total)", len(entities)))

	for _, e := range entities {
		r.Println(styles.Name.Render(e.Name) + " " + styles.Kind.Render(string(e.Kind)))
		if e.DocumentPath != "" {
			r.Println(styles.Muted.Render(e.DocumentPath))
		}
		if len(e.Props) > 0 {
			t := propTable(e)
			t.SetStyle(table.StyleLight)
			r.Println(t.Render())
		}
		r.Println("")
	}
}

// listMarkdown outputs entities as markdown tables.
func listMarkdown(r *output.Renderer, entities []*core.Entity) {
	r.Println(output.FormatHeader(1, fmt.Sprintf("Entities (%d total)", len(entities))))
	r.Println("")

	for _, e := range entities {
		r.Println(output.FormatHeader(2, entityTitle(e)))
		if e.DocumentPath != "" {
			r.Println(output.FormatKeyValue("Document Path", output.FormatCode(e.DocumentPath)))
		}
		if loc := e.Location(); loc != "" {
			r.Println(output.FormatKeyValue("Declared", loc))
		}
		if len(e.Props) > 0 {
			r.Println("")
			r.Println(propTable(e).RenderMarkdown())
		}
		r.Println("")
	}
}

// listJSON outputs entities in JSON format.
func listJSON(r *output.Renderer, entities []*core.Entity) error {
	out := output.ListOutput{Entities: make([]output.EntityInfo, 0, len(entities)), Total: len(entities)}
	for _, e := range entities {
		info := output.EntityInfo{
			Name:         e.Name,
			Kind:         string(e.Kind),
			Template:     e.IsTemplate,
			DocumentPath: e.DocumentPath,
			Location:     e.Location(),
			Props:        make([]output.PropInfo, 0, len(e.Props)),
		}
		if id := e.IDProp(); id != nil {
			info.ID = id.Name
		}
		for _, p := range e.Props {
			pi := output.PropInfo{
				Name:       p.Name,
				Type:       p.TypeName,
				Collection: p.Collection,
				Nullable:   p.Nullable,
				Pointer:    p.Pointer,
				Required:   p.Required,
				IsID:       p.IsID,
				Sources:    p.Sources,
			}
			if p.CopySource != nil {
				pi.CopyFrom = p.CopySource.Entity + "." + p.CopySource.Prop
			}
			info.Props = append(info.Props, pi)
		}
		out.Entities = append(out.Entities, info)
	}
	return r.JSON(out)
}
