package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraim-ai/fraim-toolkit/internal/decision"
	"github.com/fraim-ai/fraim-toolkit/internal/errors"
	"github.com/fraim-ai/fraim-toolkit/internal/graph"
)

func hasCode(errs []*errors.StructuralError, code errors.Code) bool {
	for _, e := range errs {
		if e.Code == code {
			return true
		}
	}
	return false
}

func baseGraph() *graph.Graph {
	gov := dec("DEC-001", 1, decision.StateSuggested)
	gov.Scope = decision.ScopeGovernance
	return graph.Build([]*decision.Decision{
		gov,
		dec("DEC-002", 2, decision.StateSuggested, "DEC-001"),
		dec("DEC-003", 3, decision.StateSuperseded, "DEC-002"),
	})
}

func TestCheckCreate(t *testing.T) {
	g := baseGraph()

	tests := []struct {
		name string
		d    *decision.Decision
		code errors.Code
	}{
		{"valid", dec("DEC-004", 3, decision.StateSuggested, "DEC-002"), ""},
		{"bad id", dec("DEC-4", 3, decision.StateSuggested), errors.CodeInvalidID},
		{"bad level", dec("DEC-004", 5, decision.StateSuggested), errors.CodeInvalidField},
		{"same level dependency", dec("DEC-004", 2, decision.StateSuggested, "DEC-002"), errors.CodeLevelOrder},
		{"higher level dependency", dec("DEC-004", 1, decision.StateSuggested, "DEC-002"), errors.CodeLevelOrder},
		{"dangling", dec("DEC-004", 3, decision.StateSuggested, "DEC-404"), errors.CodeDanglingRef},
		{"self dependency", dec("DEC-004", 3, decision.StateSuggested, "DEC-004"), errors.CodeCycle},
		{"created committed", dec("DEC-004", 3, decision.StateCommitted), errors.CodeIllegalTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := CheckCreate(g, tt.d)
			if tt.code == "" {
				assert.Empty(t, errs)
				return
			}
			assert.True(t, hasCode(errs, tt.code), "want %s, got %v", tt.code, errs)
		})
	}
}

func TestCheckCreate_GovernanceOnProject(t *testing.T) {
	d := dec("DEC-004", 3, decision.StateSuggested, "DEC-002")
	d.Scope = decision.ScopeGovernance
	errs := CheckCreate(baseGraph(), d)
	require.Len(t, errs, 1)
	assert.Equal(t, errors.CodeScopeOrder, errs[0].Code)
	assert.Equal(t, []string{"DEC-002"}, errs[0].RelatedIDs)
}

func TestCheckSet_IronRule(t *testing.T) {
	g := baseGraph()
	prev, _ := g.Get("DEC-002")
	next := prev.Clone()
	next.State = decision.StateCommitted

	errs := CheckSet(g, prev, next, "state")
	require.Len(t, errs, 1)
	assert.Equal(t, errors.CodeIronRule, errs[0].Code)
	assert.Contains(t, errs[0].Message(), "DEC-001")

	up, _ := g.Get("DEC-001")
	committed := up.Clone()
	committed.State = decision.StateCommitted
	g = g.With(committed)

	assert.Empty(t, CheckSet(g, prev, next, "state"))
}

func TestCheckSet_Transitions(t *testing.T) {
	g := graph.Build([]*decision.Decision{dec("DEC-001", 1, decision.StateCommitted)})
	prev, _ := g.Get("DEC-001")

	back := prev.Clone()
	back.State = decision.StateSuggested
	errs := CheckSet(g, prev, back, "state")
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], errors.ErrIllegalTransition)

	sup := prev.Clone()
	sup.State = decision.StateSuperseded
	assert.Empty(t, CheckSet(g, prev, sup, "state"))
}

func TestCheckSet_SupersededIsFrozen(t *testing.T) {
	g := baseGraph()
	prev, _ := g.Get("DEC-003")

	next := prev.Clone()
	next.Title = "new"
	errs := CheckSet(g, prev, next, "title")
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], errors.ErrSuperseded)

	same := prev.Clone()
	assert.Empty(t, CheckSet(g, prev, same, "state"))
}

func TestCheckSet_DependsOnCycle(t *testing.T) {
	g := graph.Build([]*decision.Decision{
		dec("DEC-001", 1, decision.StateSuggested),
		dec("DEC-002", 2, decision.StateSuggested, "DEC-001"),
		dec("DEC-003", 3, decision.StateSuggested, "DEC-002"),
	})
	prev, _ := g.Get("DEC-001")
	next := prev.Clone()
	next.DependsOn = []string{"DEC-003"}

	errs := CheckSet(g, prev, next, "depends_on")
	assert.True(t, hasCode(errs, errors.CodeCycle))
	assert.True(t, hasCode(errs, errors.CodeLevelOrder))
}

func TestCheckSet_LevelChecksDependents(t *testing.T) {
	g := graph.Build([]*decision.Decision{
		dec("DEC-001", 1, decision.StateSuggested),
		dec("DEC-002", 2, decision.StateSuggested, "DEC-001"),
	})
	prev, _ := g.Get("DEC-001")
	next := prev.Clone()
	next.Level = 3

	errs := CheckSet(g, prev, next, "level")
	require.Len(t, errs, 1)
	assert.Equal(t, "DEC-002", errs[0].NodeID)
	assert.Equal(t, errors.CodeLevelOrder, errs[0].Code)
}

func TestCheckSet_UnrelatedProblemsDoNotBlock(t *testing.T) {
	broken := dec("DEC-001", 1, decision.StateSuggested, "DEC-404")
	g := graph.Build([]*decision.Decision{broken})
	next := broken.Clone()
	next.Stakes = decision.StakesHigh
	assert.Empty(t, CheckSet(g, broken, next, "stakes"))

	next.Stakes = "extreme"
	assert.True(t, hasCode(CheckSet(g, broken, next, "stakes"), errors.CodeInvalidField))
}

func TestCheckTitle_ControlCharacters(t *testing.T) {
	g := baseGraph()

	created := dec("DEC-004", 3, decision.StateSuggested, "DEC-002")
	created.Title = "two\nlines"
	assert.True(t, hasCode(CheckCreate(g, created), errors.CodeInvalidField))

	prev, _ := g.Get("DEC-002")
	for _, title := range []string{"a\nb", "tab\there", "bell\a"} {
		next := prev.Clone()
		next.Title = title
		errs := CheckSet(g, prev, next, "title")
		require.Len(t, errs, 1, "title %q", title)
		assert.ErrorIs(t, errs[0], errors.ErrInvalidField)
		assert.Equal(t, "title", errs[0].Field)
	}

	next := prev.Clone()
	next.Title = "Pricing: per seat, not per 'org'"
	assert.Empty(t, CheckSet(g, prev, next, "title"))
}
