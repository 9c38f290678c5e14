package health

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraim-ai/fraim-toolkit/internal/decision"
	"github.com/fraim-ai/fraim-toolkit/internal/graph"
	"github.com/fraim-ai/fraim-toolkit/internal/store"
	"github.com/fraim-ai/fraim-toolkit/internal/testutil"
)

func TestRenderIndex(t *testing.T) {
	piped := testutil.Decision("DEC-003", 2, decision.StateSuggested, "DEC-001", "DEC-002")
	piped.Title = "Build | buy"
	piped.Stakes = decision.StakesHigh

	out := RenderIndex(decision.ScopeProject, []*decision.Decision{
		testutil.Decision("DEC-001", 1, decision.StateCommitted),
		testutil.Decision("DEC-002", 1, decision.StateCommitted),
		piped,
	})

	assert.Contains(t, out, "# DNA Index\n\nDerived index. Regenerate via `dna index`. Do not edit directly.\n")
	assert.Contains(t, out, "**Total:** 3 decisions\n")
	assert.Contains(t, out, "## L1 — Identity\n")
	assert.Contains(t, out, "| DEC-001 | Title of DEC-001 | 1 | committed |  | — |\n")
	assert.Contains(t, out, "## L2 — Direction\n")
	assert.Contains(t, out, `| DEC-003 | Build \| buy | 2 | suggested | high | DEC-001, DEC-002 |`)
	assert.NotContains(t, out, "## L3")
	assert.Less(t, strings.Index(out, "| DEC-002"), strings.Index(out, "| DEC-003"))
}

func TestWriteIndexes(t *testing.T) {
	p := testutil.NewProject(t)
	nodes := []*decision.Decision{
		testutil.Governance(testutil.Decision("DEC-001", 1, decision.StateCommitted)),
		testutil.Decision("DEC-002", 2, decision.StateSuggested, "DEC-001"),
	}
	st := store.New(p.GovernanceDir(), p.ProjectDir())

	results, err := WriteIndexes(st, graph.Build(nodes))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, decision.ScopeGovernance, results[0].Scope)
	assert.Equal(t, 1, results[1].Count)

	gov := p.ReadFile(filepath.Join(p.GovernanceDir(), IndexFile))
	assert.Contains(t, gov, "# Constitution Index")

	first := p.ReadFile(filepath.Join(p.ProjectDir(), IndexFile))
	_, err = WriteIndexes(st, graph.Build(nodes))
	require.NoError(t, err)
	assert.Equal(t, first, p.ReadFile(filepath.Join(p.ProjectDir(), IndexFile)), "regeneration is idempotent")
}

func TestWriteIndexes_SkipsMissingGovernance(t *testing.T) {
	root := t.TempDir()
	st := store.New(filepath.Join(root, "constitution"), filepath.Join(root, "dna"))

	results, err := WriteIndexes(st, graph.Build(nil))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, decision.ScopeProject, results[0].Scope)

	_, err = os.Stat(filepath.Join(root, "constitution"))
	assert.True(t, os.IsNotExist(err))
}

func TestCheck(t *testing.T) {
	pricing := testutil.Decision("DEC-002", 2, decision.StateCommitted, "DEC-001")
	pricing.Body = "\n\n## Decision\n\nUsage-based Pricing for all tiers.\n"
	draft := testutil.Decision("DEC-003", 2, decision.StateSuggested, "DEC-001")
	draft.Body = "\n\n## Decision\n\nPricing experiments.\n"

	g := graph.Build([]*decision.Decision{
		testutil.Decision("DEC-001", 1, decision.StateCommitted),
		pricing,
		draft,
	})

	res := Check(g, []string{" PRICING ", "mission"}, 0)
	assert.Equal(t, []string{"pricing", "mission"}, res.Keywords)
	require.Len(t, res.Matches, 1, "only committed decisions are reported")
	assert.Equal(t, "DEC-002", res.Matches[0].ID)
	assert.Equal(t, "pricing", res.Matches[0].Keyword)
	assert.False(t, res.FoundationThin)

	res = Check(g, []string{"title of"}, 0.9)
	assert.Len(t, res.Matches, 2)
	assert.True(t, res.FoundationThin, "L2 is half committed, below 0.9")
}
