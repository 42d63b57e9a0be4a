package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapmodel/internal/cli/output"
	clitest "github.com/leapstack-labs/leapmodel/internal/cli/testutil"
	"github.com/leapstack-labs/leapmodel/internal/dag"
)

func TestDAGCommand_JSON(t *testing.T) {
	dir := clitest.SetupTestProject(t)
	cfg := loadConfig(t, dir)
	cfg.OutputFormat = "json"

	stdout, _, err := runCommand(t, NewDAGCommand(), cfg)
	require.NoError(t, err)

	var out output.DAGOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, 3, out.TotalEntities)
	assert.Equal(t, 1, out.TotalEdges)
	assert.Empty(t, out.Cycle)

	require.Len(t, out.Levels, 2)
	require.Len(t, out.Levels[0].Entities, 2)
	assert.Equal(t, "Role", out.Levels[0].Entities[0].Name)
	assert.Equal(t, "User", out.Levels[0].Entities[1].Name)
	assert.Equal(t, []string{"Profile"}, out.Levels[0].Entities[1].UsedBy)

	require.Len(t, out.Levels[1].Entities, 1)
	assert.Equal(t, "Profile", out.Levels[1].Entities[0].Name)
	assert.Equal(t, []string{"User"}, out.Levels[1].Entities[0].DependsOn)
	assert.Equal(t, []string{}, out.Levels[1].Entities[0].UsedBy)
	assert.Equal(t, []string{"User", "Profile", "Role"}, out.Order)
}

func TestDAGCommand_Focus(t *testing.T) {
	dir := clitest.SetupTestProject(t)
	cfg := loadConfig(t, dir)
	cfg.OutputFormat = "json"

	tests := []struct {
		name  string
		args  []string
		order []string
	}{
		{"both directions", []string{"User"}, []string{"User", "Profile"}},
		{"upstream only", []string{"Profile", "--downstream=false"}, []string{"User", "Profile"}},
		{"downstream only", []string{"Profile", "--upstream=false"}, []string{"Profile"}},
		{"isolated", []string{"Role"}, []string{"Role"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := runCommand(t, NewDAGCommand(), cfg, tt.args...)
			require.NoError(t, err)

			var out output.DAGOutput
			require.NoError(t, json.Unmarshal([]byte(stdout), &out))
			assert.Equal(t, tt.order, out.Order)
			assert.Equal(t, len(tt.order), out.TotalEntities)
		})
	}
}

func TestDAGCommand_UnknownEntity(t *testing.T) {
	dir := clitest.SetupTestProject(t)
	cfg := loadConfig(t, dir)

	_, _, err := runCommand(t, NewDAGCommand(), cfg, "Ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown entity: Ghost")
}

func TestDAGCommand_Markdown(t *testing.T) {
	dir := clitest.SetupTestProject(t)
	cfg := loadConfig(t, dir)

	stdout, _, err := runCommand(t, NewDAGCommand(), cfg)
	require.NoError(t, err)
	clitest.AssertNoANSI(t, stdout)
	clitest.AssertValidMarkdown(t, stdout)
	assert.Contains(t, stdout, "## Level 0 (Roots)")
	assert.Contains(t, stdout, "- Profile\n  - depends on: User")
	assert.Contains(t, stdout, "- **Total Entities:** 3")
}

func TestDAGCommand_Cycle(t *testing.T) {
	dir := clitest.SetupProject(t, clitest.ProjectConfig, map[string]string{
		"models/loop.yaml": clitest.LoopModel,
	})
	cfg := loadConfig(t, dir)
	cfg.OutputFormat = "text"

	stdout, _, err := runCommand(t, NewDAGCommand(), cfg)
	require.Error(t, err)

	var cerr *dag.CycleError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{"A", "B", "A"}, cerr.Path)
	assert.Contains(t, stdout, "Cycle: A -> B -> A")
}
