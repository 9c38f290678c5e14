package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraim-ai/fraim-toolkit/internal/decision"
	"github.com/fraim-ai/fraim-toolkit/internal/errors"
)

func node(id string, level decision.Level, state decision.State, deps ...string) *decision.Decision {
	if deps == nil {
		deps = []string{}
	}
	return &decision.Decision{
		ID:        id,
		Title:     "T " + id,
		Level:     level,
		State:     state,
		DependsOn: deps,
		Scope:     decision.ScopeProject,
		Path:      id + ".md",
	}
}

// chain: 001 <- 002 <- 003 <- 004, and 001 <- 005
func sampleGraph() *Graph {
	gov := node("DEC-001", 1, decision.StateCommitted)
	gov.Scope = decision.ScopeGovernance
	return Build([]*decision.Decision{
		gov,
		node("DEC-002", 2, decision.StateSuggested, "DEC-001"),
		node("DEC-003", 3, decision.StateSuggested, "DEC-002"),
		node("DEC-004", 4, decision.StateSuggested, "DEC-003"),
		node("DEC-005", 2, decision.StateCommitted, "DEC-001"),
	})
}

func TestBuild(t *testing.T) {
	g := sampleGraph()
	assert.Equal(t, 5, g.Len())
	assert.True(t, g.Exists("DEC-003"))
	assert.False(t, g.Exists("DEC-999"))
	assert.Equal(t, []string{"DEC-002", "DEC-005"}, g.Dependents("DEC-001"))
	assert.Equal(t, []string{"DEC-001"}, g.Neighbors("DEC-002", Reverse))
	assert.Equal(t, []string{"DEC-003"}, g.Neighbors("DEC-002", Forward))
	assert.Empty(t, g.Duplicates())
}

func TestBuild_Duplicates(t *testing.T) {
	a := node("DEC-001", 1, decision.StateSuggested)
	a.Path = "constitution/DEC-001.md"
	b := node("DEC-001", 2, decision.StateSuggested)
	b.Path = "dna/DEC-001.md"

	g := Build([]*decision.Decision{a, b})
	require.Len(t, g.Duplicates(), 1)
	assert.Equal(t, []string{"constitution/DEC-001.md", "dna/DEC-001.md"}, g.Duplicates()[0].Paths)

	got, _ := g.Get("DEC-001")
	assert.Same(t, a, got)
}

func TestDanglingAndOrphan(t *testing.T) {
	g := Build([]*decision.Decision{
		node("DEC-001", 1, decision.StateSuggested),
		node("DEC-002", 2, decision.StateSuggested, "DEC-404"),
	})
	assert.Equal(t, []string{"DEC-404"}, g.Dangling("DEC-002"))
	assert.Empty(t, g.DependsOn("DEC-002"))
	assert.True(t, g.Orphan("DEC-001"))
	assert.False(t, g.Orphan("DEC-002"))
}

func TestWith(t *testing.T) {
	g := sampleGraph()
	changed := node("DEC-005", 2, decision.StateCommitted, "DEC-001", "DEC-002")
	next := g.With(changed)

	assert.Equal(t, []string{"DEC-003", "DEC-005"}, next.Dependents("DEC-002"))
	assert.Equal(t, []string{"DEC-003"}, g.Dependents("DEC-002"), "original graph is unchanged")

	added := g.With(node("DEC-006", 3, decision.StateSuggested, "DEC-005"))
	assert.Equal(t, 6, added.Len())
}

func TestCycles(t *testing.T) {
	g := Build([]*decision.Decision{
		node("DEC-001", 1, decision.StateSuggested, "DEC-003"),
		node("DEC-002", 2, decision.StateSuggested, "DEC-001"),
		node("DEC-003", 3, decision.StateSuggested, "DEC-002"),
		node("DEC-004", 3, decision.StateSuggested, "DEC-004"),
	})

	cycles := g.Cycles()
	require.Len(t, cycles, 2)
	assert.Equal(t, "DEC-001 → DEC-003 → DEC-002 → DEC-001", cycles[0].String())
	assert.Equal(t, []string{"DEC-001", "DEC-002", "DEC-003"}, cycles[0].Members())
	assert.Equal(t, "DEC-004 → DEC-004", cycles[1].String())

	assert.Empty(t, sampleGraph().Cycles())
}

func TestReaches(t *testing.T) {
	g := sampleGraph()
	assert.True(t, g.Reaches("DEC-004", "DEC-001"))
	assert.False(t, g.Reaches("DEC-001", "DEC-004"))
	assert.True(t, g.Reaches("DEC-002", "DEC-002"))
}

func TestTraverse(t *testing.T) {
	g := sampleGraph()

	forward := g.Traverse("DEC-001", Forward)
	assert.Equal(t, []Visit{
		{ID: "DEC-002", Depth: 1, Via: "DEC-001"},
		{ID: "DEC-005", Depth: 1, Via: "DEC-001"},
		{ID: "DEC-003", Depth: 2, Via: "DEC-002"},
		{ID: "DEC-004", Depth: 3, Via: "DEC-003"},
	}, forward)

	reverse := g.Traverse("DEC-004", Reverse)
	require.Len(t, reverse, 3)
	assert.Equal(t, "DEC-001", reverse[2].ID)
	assert.Equal(t, 3, reverse[2].Depth)

	assert.Nil(t, g.Traverse("DEC-404", Forward))
	assert.Equal(t, 4, g.Weight("DEC-001"))
	assert.Equal(t, 0, g.Weights()["DEC-004"])
}

func TestTraverse_CycleSafe(t *testing.T) {
	g := Build([]*decision.Decision{
		node("DEC-001", 1, decision.StateSuggested, "DEC-002"),
		node("DEC-002", 2, decision.StateSuggested, "DEC-001"),
	})
	visits := g.Traverse("DEC-001", Forward)
	require.Len(t, visits, 1)
	assert.Equal(t, "DEC-002", visits[0].ID)
}

func TestCascade(t *testing.T) {
	g := sampleGraph()

	c, err := g.Cascade("DEC-001", Forward)
	require.NoError(t, err)
	assert.Equal(t, CascadeSummary{TotalAffected: 4, WaveCount: 3, Direct: 2}, c.Summary)
	assert.Equal(t, []string{"DEC-002", "DEC-005", "DEC-003", "DEC-004"}, c.Affected())

	first := c.Waves[0].Effects[0]
	assert.Equal(t, "depends on DEC-001", first.Reason)
	assert.True(t, first.CrossScope)
	assert.Equal(t, decision.StateSuggested, first.CurrentState)
	assert.False(t, c.Waves[1].Effects[0].CrossScope)

	up, err := g.Cascade("DEC-003", Reverse)
	require.NoError(t, err)
	assert.Equal(t, "DEC-003 depends on this", up.Waves[0].Effects[0].Reason)
	assert.Equal(t, []string{"DEC-002", "DEC-001"}, up.Affected())

	leaf, err := g.Cascade("DEC-004", Forward)
	require.NoError(t, err)
	assert.Empty(t, leaf.Waves)
	assert.Equal(t, 0, leaf.Summary.TotalAffected)

	_, err = g.Cascade("DEC-404", Forward)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestCriticalPath(t *testing.T) {
	g := Build([]*decision.Decision{
		node("DEC-001", 1, decision.StateSuggested),
		node("DEC-002", 2, decision.StateSuggested, "DEC-001"),
		node("DEC-003", 2, decision.StateCommitted),
		node("DEC-004", 3, decision.StateSuggested, "DEC-002", "DEC-003"),
		node("DEC-005", 3, decision.StateSuggested, "DEC-003"),
		node("DEC-006", 4, decision.StateSuggested, "DEC-005", "DEC-001"),
	})

	assert.Equal(t, []string{"DEC-001", "DEC-002"}, g.CriticalPath("DEC-004"))
	assert.Equal(t, []string{"DEC-005", "DEC-001"}, g.CriticalPath("DEC-006"))
	assert.Nil(t, g.CriticalPath("DEC-005"))
}

func TestTopoOrder(t *testing.T) {
	g := Build([]*decision.Decision{
		node("DEC-010", 1, decision.StateCommitted),
		node("DEC-002", 2, decision.StateCommitted, "DEC-010"),
		node("DEC-003", 2, decision.StateCommitted),
		node("DEC-001", 3, decision.StateCommitted, "DEC-002", "DEC-003"),
	})

	order := g.TopoOrder([]string{"DEC-001", "DEC-002", "DEC-003", "DEC-010"})
	assert.Equal(t, []string{"DEC-003", "DEC-010", "DEC-002", "DEC-001"}, order)

	subset := g.TopoOrder([]string{"DEC-001", "DEC-003"})
	assert.Equal(t, []string{"DEC-003", "DEC-001"}, subset)
}

func TestTopoOrder_CycleMembersAppended(t *testing.T) {
	g := Build([]*decision.Decision{
		node("DEC-001", 1, decision.StateSuggested, "DEC-002"),
		node("DEC-002", 1, decision.StateSuggested, "DEC-001"),
		node("DEC-003", 1, decision.StateSuggested),
	})
	assert.Equal(t, []string{"DEC-003", "DEC-001", "DEC-002"}, g.TopoOrder(g.IDs()))
}

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{
		"":           Forward,
		"forward":    Forward,
		"downstream": Forward,
		"reverse":    Reverse,
		"upstream":   Reverse,
	} {
		got, ok := ParseDirection(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseDirection("sideways")
	assert.False(t, ok)
}

func BenchmarkCascade(b *testing.B) {
	var ds []*decision.Decision
	for i := 1; i <= 500; i++ {
		var deps []string
		if i > 1 {
			deps = []string{fmt.Sprintf("DEC-%03d", i/2)}
		}
		ds = append(ds, node(fmt.Sprintf("DEC-%03d", i), 1, decision.StateSuggested, deps...))
	}
	g := Build(ds)

	b.ResetTimer()
	for b.Loop() {
		_, _ = g.Cascade("DEC-001", Forward)
	}
}
