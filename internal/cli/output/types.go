package output

import "time"

// JSON output shapes.

// EntityInfo describes a resolved entity.
type EntityInfo struct {
	Name         string     `json:"name"`
	Kind         string     `json:"kind"`
	Template     bool       `json:"template,omitempty"`
	DocumentPath string     `json:"document_path,omitempty"`
	Location     string     `json:"location,omitempty"`
	ID           string     `json:"id,omitempty"`
	Props        []PropInfo `json:"props"`
}

// PropInfo describes a resolved property.
type PropInfo struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Collection bool     `json:"collection,omitempty"`
	Nullable   bool     `json:"nullable,omitempty"`
	Pointer    bool     `json:"pointer,omitempty"`
	Required   bool     `json:"required,omitempty"`
	IsID       bool     `json:"is_id,omitempty"`
	Sources    []string `json:"sources,omitempty"`
	CopyFrom   string   `json:"copy_from,omitempty"`
}

// ListOutput is the list command result.
type ListOutput struct {
	Entities []EntityInfo `json:"entities"`
	Total    int          `json:"total"`
}

// CheckOutput is the check command result.
type CheckOutput struct {
	OK       bool   `json:"ok"`
	Files    int    `json:"files"`
	Entities int    `json:"entities"`
	Passes   int    `json:"passes"`
	Error    string `json:"error,omitempty"`
}

// WrittenFile is one emitted file.
type WrittenFile struct {
	Type  string `json:"type"`
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

// BuildOutput is the build command result.
type BuildOutput struct {
	RunID    string        `json:"run_id,omitempty"`
	Entities int           `json:"entities"`
	Passes   int           `json:"passes"`
	Duration string        `json:"duration"`
	Files    []WrittenFile `json:"files"`
}

// DAGNode is an entity and its direct dependencies.
type DAGNode struct {
	Name      string   `json:"name"`
	DependsOn []string `json:"depends_on"`
	UsedBy    []string `json:"used_by"`
}

// DAGLevel groups entities at the same dependency depth.
type DAGLevel struct {
	Level    int       `json:"level"`
	Entities []DAGNode `json:"entities"`
}

// DAGOutput is the dag command result.
type DAGOutput struct {
	Levels        []DAGLevel `json:"levels"`
	TotalEntities int        `json:"total_entities"`
	TotalEdges    int        `json:"total_edges"`
	Order         []string   `json:"order,omitempty"`
	Cycle         []string   `json:"cycle,omitempty"`
}

// DirectiveInfo describes a registered directive.
type DirectiveInfo struct {
	Name    string `json:"name"`
	Usage   string `json:"usage,omitempty"`
	Summary string `json:"summary,omitempty"`
	Origin  string `json:"origin"`
}

// AliasInfo is one entry of the alias table.
type AliasInfo struct {
	Alias     string `json:"alias"`
	Expansion string `json:"expansion"`
}

// RunInfo describes a recorded run.
type RunInfo struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Duration    string     `json:"duration,omitempty"`
	Passes      int        `json:"passes"`
	EntityCount int        `json:"entity_count"`
	Inputs      string     `json:"inputs,omitempty"`
	Error       string     `json:"error,omitempty"`
	HasDump     bool       `json:"has_dump"`
}
