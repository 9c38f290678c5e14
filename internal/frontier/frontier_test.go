package frontier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraim-ai/fraim-toolkit/internal/decision"
	"github.com/fraim-ai/fraim-toolkit/internal/graph"
)

func dec(id string, level decision.Level, state decision.State, deps ...string) *decision.Decision {
	if deps == nil {
		deps = []string{}
	}
	return &decision.Decision{ID: id, Title: "T " + id, Level: level, State: state, DependsOn: deps, Scope: decision.ScopeProject}
}

func ids[T interface{ key() string }](items []T) []string {
	out := []string{}
	for _, i := range items {
		out = append(out, i.key())
	}
	return out
}

func (e Entry) key() string    { return e.ID }
func (b Blocked) key() string  { return b.ID }
func (w Weighted) key() string { return w.ID }

func sample() *graph.Graph {
	return graph.Build([]*decision.Decision{
		dec("DEC-001", 1, decision.StateCommitted),
		dec("DEC-002", 2, decision.StateSuggested, "DEC-001"),
		dec("DEC-003", 2, decision.StateSuggested, "DEC-001"),
		dec("DEC-004", 3, decision.StateSuggested, "DEC-002"),
		dec("DEC-005", 3, decision.StateSuggested, "DEC-002", "DEC-003"),
		dec("DEC-006", 4, decision.StateSuggested, "DEC-004"),
		dec("DEC-007", 4, decision.StateSuperseded, "DEC-001"),
		dec("DEC-008", 3, decision.StateSuggested, "DEC-404"),
	})
}

func TestCompute_Partition(t *testing.T) {
	f := Compute(sample(), 0)

	assert.Equal(t, []string{"DEC-002", "DEC-003"}, ids(f.Committable))
	assert.ElementsMatch(t, []string{"DEC-004", "DEC-005", "DEC-006", "DEC-008"}, ids(f.Blocked))
	assert.NotContains(t, ids(f.Blocked), "DEC-007")
	assert.NotContains(t, ids(f.Committable), "DEC-001")

	for _, b := range f.Blocked {
		assert.NotEmpty(t, b.Reason(), b.ID)
	}

	assert.Equal(t, Summary{
		TotalDecisions:   8,
		Suggested:        6,
		CommittableCount: 2,
		BlockedCount:     4,
		LevelGapCount:    3,
	}, f.Summary)
}

func TestCompute_CommittableOrder(t *testing.T) {
	f := Compute(sample(), 0)
	require.Len(t, f.Committable, 2)
	assert.Equal(t, 3, f.Committable[0].DownstreamWeight)
	assert.Equal(t, []string{"DEC-004", "DEC-005", "DEC-006"}, f.Committable[0].DownstreamIDs)
	assert.Equal(t, 1, f.Committable[1].DownstreamWeight)
}

func TestCompute_BlockedDetails(t *testing.T) {
	f := Compute(sample(), 0)

	byID := map[string]Blocked{}
	for _, b := range f.Blocked {
		byID[b.ID] = b
	}

	assert.Equal(t, []string{"DEC-004"}, byID["DEC-006"].Blockers)
	assert.Equal(t, []string{"DEC-002", "DEC-004"}, byID["DEC-006"].CriticalPath)
	assert.Equal(t, []string{"DEC-002", "DEC-003"}, byID["DEC-005"].CriticalPath)
	assert.Equal(t, []string{"DEC-404"}, byID["DEC-008"].Missing)
	assert.Equal(t, "missing: DEC-404", byID["DEC-008"].Reason())
	assert.Equal(t, "uncommitted: DEC-002, DEC-003", byID["DEC-005"].Reason())

	assert.Equal(t, "DEC-008", f.Blocked[0].ID, "shortest critical path first")
	assert.Equal(t, "DEC-006", f.Blocked[len(f.Blocked)-1].ID)
}

func TestCompute_LevelGaps(t *testing.T) {
	f := Compute(sample(), 0)
	require.Len(t, f.LevelGaps, 4)

	assert.Empty(t, f.LevelGaps[0].Flags)
	assert.Equal(t, []string{"more suggested than committed", "no committed decisions"}, f.LevelGaps[1].Flags)
	assert.Equal(t, 1, f.LevelGaps[3].Superseded)
	assert.Equal(t, "Tactics", f.LevelGaps[3].LevelName)
}

func TestCompute_HighWeight(t *testing.T) {
	f := Compute(sample(), 2)
	require.Len(t, f.HighWeight, 2)
	assert.Equal(t, "DEC-001", f.HighWeight[0].ID)
	assert.Equal(t, 6, f.HighWeight[0].DownstreamWeight)
	assert.Equal(t, []string{"DEC-002", "DEC-003", "DEC-007"}, f.HighWeight[0].DirectDependents)
	assert.Equal(t, "DEC-002", f.HighWeight[1].ID)
}

func TestCompute_IronRuleScenario(t *testing.T) {
	g := graph.Build([]*decision.Decision{
		dec("DEC-001", 1, decision.StateSuggested),
		dec("DEC-002", 2, decision.StateSuggested, "DEC-001"),
	})
	f := Compute(g, 0)
	assert.Equal(t, []string{"DEC-001"}, ids(f.Committable))
	assert.Equal(t, []string{"DEC-002"}, ids(f.Blocked))

	g = graph.Build([]*decision.Decision{
		dec("DEC-001", 1, decision.StateCommitted),
		dec("DEC-002", 2, decision.StateCommitted, "DEC-001"),
	})
	f = Compute(g, 0)
	assert.Empty(t, f.Committable)
	assert.Empty(t, f.Blocked)
}

func TestComputeProgress(t *testing.T) {
	p := ComputeProgress(sample())
	require.Len(t, p.Levels, 4)

	assert.Equal(t, LevelProgress{Level: 1, Name: "Identity", Total: 1, Committed: 1, Percent: 100}, p.Levels[0])
	assert.Equal(t, 2, p.Levels[1].Suggested)
	assert.Equal(t, 0, p.Levels[1].Percent)
	assert.Equal(t, 0, p.Levels[3].Percent, "superseded decisions do not count toward progress")
	assert.Equal(t, 8, p.Total)
	assert.Equal(t, 1, p.Committed)
	assert.Equal(t, 14, p.Percent)
}
