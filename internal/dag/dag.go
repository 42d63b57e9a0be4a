// Package dag provides the entity dependency graph built from directive deps.
// It supports cycle detection with path reporting, topological ordering and
// dependency levels for the dag command.
package dag

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapmodel/pkg/core"
)

// Node is an entity in the graph.
type Node struct {
	// ID is the entity name
	ID string
	// Entity is nil for names referenced by a directive but never declared
	Entity *core.Entity
}

// Graph is a directed graph where an edge runs from a dependency to the
// entity that depends on it.
type Graph struct {
	nodes   map[string]*Node
	edges   map[string][]string // dependency -> dependents
	parents map[string][]string // dependent -> dependencies
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode adds a node, or updates the entity of an existing one.
func (g *Graph) AddNode(id string, e *core.Entity) {
	if n, exists := g.nodes[id]; exists {
		n.Entity = e
		return
	}
	g.nodes[id] = &Node{ID: id, Entity: e}
	g.edges[id] = []string{}
	g.parents[id] = []string{}
}

// AddEdge records that child depends on parent. Self edges are kept: an
// entity copying from itself can never resolve.
func (g *Graph) AddEdge(parentID, childID string) error {
	if _, exists := g.nodes[parentID]; !exists {
		return fmt.Errorf("parent node %q does not exist", parentID)
	}
	if _, exists := g.nodes[childID]; !exists {
		return fmt.Errorf("child node %q does not exist", childID)
	}

	if !slices.Contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !slices.Contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}
	return nil
}

// GetNode returns a node by ID.
func (g *Graph) GetNode(id string) (*Node, bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// GetParents returns the dependencies of a node.
func (g *Graph) GetParents(id string) []string {
	return g.parents[id]
}

// GetChildren returns the dependents of a node.
func (g *Graph) GetChildren(id string) []string {
	return g.edges[id]
}

// GetAllNodes returns all nodes sorted by ID.
func (g *Graph) GetAllNodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, id := range g.sortedIDs() {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, children := range g.edges {
		count += len(children)
	}
	return count
}

// HasCycle reports whether the graph contains a cycle, along with the cycle
// path (first and last element equal). Nodes are visited in ID order so the
// reported cycle is stable.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	from := make(map[string]string)

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		onStack[id] = true

		for _, childID := range g.edges[id] {
			if !visited[childID] {
				from[childID] = id
				if dfs(childID) {
					return true
				}
			} else if onStack[childID] {
				cyclePath = []string{childID}
				for curr := id; curr != childID; curr = from[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{childID}, cyclePath...)
				return true
			}
		}

		onStack[id] = false
		return false
	}

	for _, id := range g.sortedIDs() {
		if !visited[id] && dfs(id) {
			return true, cyclePath
		}
	}
	return false, nil
}

// CycleError describes a dependency cycle.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "cycle detected: " + strings.Join(e.Path, " -> ")
}

// TopologicalSort returns nodes with dependencies before dependents.
// It returns a *CycleError if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]*Node, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, &CycleError{Path: cyclePath}
	}

	visited := make(map[string]bool)
	var result []*Node

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, parentID := range g.parents[id] {
			visit(parentID)
		}
		result = append(result, g.nodes[id])
	}

	for _, id := range g.sortedIDs() {
		visit(id)
	}
	return result, nil
}

// GetExecutionLevels groups node IDs by dependency depth. Level 0 holds
// entities without dependencies; an entity at level N only depends on
// entities at lower levels.
func (g *Graph) GetExecutionLevels() ([][]string, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, &CycleError{Path: cyclePath}
	}

	assigned := make(map[string]int)

	var getLevel func(id string) int
	getLevel = func(id string) int {
		if level, ok := assigned[id]; ok {
			return level
		}
		level := 0
		for _, parentID := range g.parents[id] {
			level = max(level, getLevel(parentID)+1)
		}
		assigned[id] = level
		return level
	}

	maxLevel := -1
	for id := range g.nodes {
		maxLevel = max(maxLevel, getLevel(id))
	}

	levels := make([][]string, maxLevel+1)
	for id, level := range assigned {
		levels[level] = append(levels[level], id)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// GetUpstreamNodes returns every transitive dependency of id.
func (g *Graph) GetUpstreamNodes(id string) []string {
	return g.walk(id, g.parents)
}

// GetDownstreamNodes returns every transitive dependent of id.
func (g *Graph) GetDownstreamNodes(id string) []string {
	return g.walk(id, g.edges)
}

func (g *Graph) walk(id string, next map[string][]string) []string {
	seen := make(map[string]bool)

	var mark func(nodeID string)
	mark = func(nodeID string) {
		for _, n := range next[nodeID] {
			if !seen[n] {
				seen[n] = true
				mark(n)
			}
		}
	}
	mark(id)

	result := make([]string, 0, len(seen))
	for nodeID := range seen {
		result = append(result, nodeID)
	}
	sort.Strings(result)
	return result
}

// Subgraph returns a new graph containing only the given nodes and the edges
// between them.
func (g *Graph) Subgraph(nodeIDs []string) *Graph {
	sub := NewGraph()
	include := make(map[string]bool)

	for _, id := range nodeIDs {
		if node, exists := g.nodes[id]; exists {
			include[id] = true
			sub.AddNode(id, node.Entity)
		}
	}
	for id := range include {
		for _, childID := range g.edges[id] {
			if include[childID] {
				_ = sub.AddEdge(id, childID)
			}
		}
	}
	return sub
}

func (g *Graph) sortedIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
