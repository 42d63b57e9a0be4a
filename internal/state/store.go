// Package state records run history and failure dumps in SQLite.
package state

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a run or dump does not exist.
var ErrNotFound = errors.New("not found")

// RunStatus is the outcome of a run.
type RunStatus string

// Run status constants.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCanceled  RunStatus = "canceled"
)

// Run is one build or check invocation.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Status      RunStatus
	Passes      int
	EntityCount int
	// Inputs is the comma separated list of model files read.
	Inputs string
	Error  string
	// HasDump reports whether a state dump was saved for the run.
	HasDump bool
}

// Duration returns how long the run took, or zero while it is running.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunResult is recorded when a run completes.
type RunResult struct {
	Status      RunStatus
	Passes      int
	EntityCount int
	Error       string
}

// Dump is the engine state saved when a run exceeded its pass ceiling.
type Dump struct {
	RunID     string
	CreatedAt time.Time
	Content   []byte
}
