package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/leapmodel/internal/cli/output"
	"github.com/leapstack-labs/leapmodel/internal/dag"
	"github.com/leapstack-labs/leapmodel/internal/registry"
	"github.com/leapstack-labs/leapmodel/pkg/core"
	"github.com/spf13/cobra"
)

// DAGOptions selects the part of the graph to show.
type DAGOptions struct {
	Entities   []string
	Upstream   bool
	Downstream bool
}

// GraphQuerier provides read-only access to DAG structure.
type GraphQuerier interface {
	GetParents(string) []string
	GetChildren(string) []string
	NodeCount() int
	EdgeCount() int
}

// NewDAGCommand creates the dag command.
func NewDAGCommand() *cobra.Command {
	opts := DAGOptions{}

	cmd := &cobra.Command{
		Use:   "dag [entity...]",
		Short: "Show the entity dependency graph",
		Long: `Display the dependency graph (DAG) between entities.

An edge A -> B means a directive on B (copy, copyValue or a host directive
with DEPS) needs A resolved first. Entities are grouped by depth; a copy
loop is reported as a cycle. Naming entities narrows the graph to them
and their upstream and downstream neighbours.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format (agent-friendly)`,
		Example: `  # Show the DAG
  leapmodel dag

  # Output as JSON
  leapmodel dag --output json

  # Only what Profile depends on
  leapmodel dag Profile --downstream=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Entities = args
			return runDAG(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Upstream, "upstream", true, "Include dependencies of the named entities")
	cmd.Flags().BoolVar(&opts.Downstream, "downstream", true, "Include dependents of the named entities")

	return cmd
}

func runDAG(cmd *cobra.Command, opts DAGOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	reg, err := cmdCtx.Directives()
	if err != nil {
		return err
	}
	entities, err := cmdCtx.LoadEntities(cmd.Context(), reg)
	if err != nil {
		return err
	}
	graph, err := cmdCtx.NewEngine(reg, nil).Graph(entities)
	if err != nil {
		return fmt.Errorf("failed to build graph: %w", err)
	}
	if len(opts.Entities) > 0 {
		graph, err = focusGraph(graph, registry.NewEntityRegistry(), entities, opts)
		if err != nil {
			return err
		}
	}

	var cycle []string
	levels, err := graph.GetExecutionLevels()
	if err != nil {
		var cerr *dag.CycleError
		if !errors.As(err, &cerr) {
			return fmt.Errorf("failed to get dependency levels: %w", err)
		}
		cycle = cerr.Path
	}

	var order []string
	if cycle == nil {
		nodes, err := graph.TopologicalSort()
		if err != nil {
			return fmt.Errorf("failed to sort graph: %w", err)
		}
		for _, n := range nodes {
			order = append(order, n.ID)
		}
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := dagJSON(r, graph, levels, order, cycle); err != nil {
			return err
		}
	case output.ModeMarkdown:
		dagMarkdown(r, graph, levels, cycle)
	default:
		dagText(r, graph, levels, cycle)
	}

	if cycle != nil {
		return &dag.CycleError{Path: cycle}
	}
	return nil
}

// focusGraph narrows graph to the named entities and their neighbours.
func focusGraph(graph *dag.Graph, reg *registry.EntityRegistry, entities []*core.Entity, opts DAGOptions) (*dag.Graph, error) {
	reg.RegisterAll(entities)
	found, unknown := reg.ResolveDependencies(opts.Entities)
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown entity: %s", strings.Join(unknown, ", "))
	}

	var ids []string
	for _, ent := range found {
		ids = append(ids, ent.Name)
		if opts.Upstream {
			ids = append(ids, graph.GetUpstreamNodes(ent.Name)...)
		}
		if opts.Downstream {
			ids = append(ids, graph.GetDownstreamNodes(ent.Name)...)
		}
	}
	return graph.Subgraph(ids), nil
}

// dagText outputs DAG in styled text format.
func dagText(r *output.Renderer, graph GraphQuerier, levels [][]string, cycle []string) {
	styles := r.Styles()

	r.Header(1, "Dependency Graph")

	if cycle != nil {
		r.Println(styles.Error.Render("Cycle: " + strings.Join(cycle, " -> ")))
		r.Println("")
	}

	for i, level := range levels {
		r.Println(styles.Header2.Render(fmt.Sprintf("Level %d:", i)))
		for _, name := range level {
			deps := graph.GetParents(name)
			children := graph.GetChildren(name)

			r.Printf("  %s\n", styles.Name.Render(name))
			if len(deps) > 0 {
				r.Printf("    %s %s\n", styles.Muted.Render("depends on:"), strings.Join(deps, ", "))
			}
			if len(children) > 0 {
				r.Printf("    %s %s\n", styles.Muted.Render("used by:"), strings.Join(children, ", "))
			}
		}
		r.Println("")
	}

	r.Println(styles.Muted.Render(fmt.Sprintf("Total: %d entities, %d dependencies", graph.NodeCount(), graph.EdgeCount())))
}

// dagMarkdown outputs DAG in markdown format.
func dagMarkdown(r *output.Renderer, graph GraphQuerier, levels [][]string, cycle []string) {
	r.Println(output.FormatHeader(1, "Dependency Graph"))
	r.Println("")

	if cycle != nil {
		r.Println(output.FormatKeyValue("Cycle", strings.Join(cycle, " -> ")))
		r.Println("")
	}

	for i, level := range levels {
		levelName := fmt.Sprintf("Level %d", i)
		if i == 0 {
			levelName = "Level 0 (Roots)"
		}
		r.Println(output.FormatHeader(2, levelName))

		for _, name := range level {
			deps := graph.GetParents(name)
			children := graph.GetChildren(name)

			r.Printf("- %s\n", name)
			if len(deps) > 0 {
				r.Printf("  - depends on: %s\n", strings.Join(deps, ", "))
			}
			if len(children) > 0 {
				r.Printf("  - used by: %s\n", strings.Join(children, ", "))
			}
		}
		r.Println("")
	}

	r.Println(output.FormatHeader(2, "Summary"))
	r.Println(output.FormatKeyValue("Total Entities", fmt.Sprintf("%d", graph.NodeCount())))
	r.Println(output.FormatKeyValue("Total Dependencies", fmt.Sprintf("%d", graph.EdgeCount())))
}

// dagJSON outputs DAG in JSON format.
func dagJSON(r *output.Renderer, graph GraphQuerier, levels [][]string, order, cycle []string) error {
	dagOutput := output.DAGOutput{
		Levels:        make([]output.DAGLevel, 0, len(levels)),
		Order:         order,
		TotalEntities: graph.NodeCount(),
		TotalEdges:    graph.EdgeCount(),
		Cycle:         cycle,
	}

	for i, level := range levels {
		dagLevel := output.DAGLevel{
			Level:    i,
			Entities: make([]output.DAGNode, 0, len(level)),
		}

		for _, name := range level {
			dagLevel.Entities = append(dagLevel.Entities, output.DAGNode{
				Name:      name,
				DependsOn: orEmpty(graph.GetParents(name)),
				UsedBy:    orEmpty(graph.GetChildren(name)),
			})
		}

		dagOutput.Levels = append(dagOutput.Levels, dagLevel)
	}

	return r.JSON(dagOutput)
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
