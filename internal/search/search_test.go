package search

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraim-ai/fraim-toolkit/internal/decision"
	"github.com/fraim-ai/fraim-toolkit/internal/graph"
	"github.com/fraim-ai/fraim-toolkit/internal/testutil"
)

func searchGraph() *graph.Graph {
	pricing := testutil.Decision("DEC-002", 2, decision.StateCommitted, "DEC-001")
	pricing.Title = "Pricing model"
	pricing.Body = "\n\n## Decision\n\nCharge per seat.\n\n## Reasoning\n\nSeat pricing is what buyers expect.\n\n## Assumptions\n\n\n\n## Tradeoffs\n\n"

	hosting := testutil.Decision("DEC-003", 3, decision.StateSuggested, "DEC-002")
	hosting.Title = "Hosting"
	hosting.Body = "\n\n## Decision\n\nRun on managed Postgres.\n\n## Reasoning\n\n\n\n## Assumptions\n\nTraffic stays modest.\n\n## Tradeoffs\n\n"

	return graph.Build([]*decision.Decision{
		testutil.Governance(testutil.Decision("DEC-001", 1, decision.StateCommitted)),
		pricing,
		hosting,
	})
}

func TestSearch_TitleAndSections(t *testing.T) {
	res := Search(searchGraph(), []string{"PRICING"})

	require.Equal(t, 1, res.Count)
	r := res.Results[0]
	assert.Equal(t, "DEC-002", r.ID)
	assert.Equal(t, []string{"title", "Reasoning"}, r.MatchedSections)
	assert.Contains(t, r.Snippet, "Seat pricing is what buyers expect.")
	assert.Equal(t, []string{"pricing"}, res.Query)
}

func TestSearch_MultipleTermsAreORed(t *testing.T) {
	res := Search(searchGraph(), []string{"postgres", "seat"})

	require.Equal(t, 2, res.Count)
	assert.Equal(t, "DEC-002", res.Results[0].ID)
	assert.Equal(t, "DEC-003", res.Results[1].ID)
	assert.Equal(t, []string{"Decision"}, res.Results[1].MatchedSections)
	assert.Equal(t, decision.ScopeProject, res.Results[1].Scope)
}

func TestSearch_NoMatchIsEmpty(t *testing.T) {
	res := Search(searchGraph(), []string{"kubernetes"})
	assert.Equal(t, 0, res.Count)
	assert.NotNil(t, res.Results)

	res = Search(searchGraph(), []string{"  ", ""})
	assert.Empty(t, res.Query)
	assert.Equal(t, 0, res.Count)
}

func TestSnippet(t *testing.T) {
	d := &decision.Decision{
		Title: "Long",
		Body:  "\n\n## Decision\n\n" + "aaaaaaaaaa bbbbbbbbbb cccccccccc dddddddddd eeeeeeeeee target ffffffffff gggggggggg hhhhhhhhhh iiiiiiiiii jjjjjjjjjj\n",
	}
	s := snippet(d, []string{"target"})
	assert.Equal(t, "...bbbbbb cccccccccc dddddddddd eeeeeeeeee target ffffffffff gggggggggg hhhhhhhhhh iiiiii...", s)

	d.Body = "\n"
	assert.Equal(t, "Long", snippet(d, []string{"long"}))

	d.Body = "## Decision\n\nÜber großartig ünd target"
	assert.Contains(t, snippet(d, []string{"target"}), "target")
}

func TestSearch_SnippetWithRunesThatChangeLengthWhenLowered(t *testing.T) {
	tests := []struct {
		name   string
		filler string
	}{
		{"grows", "Ⱥ"},   // 2 bytes, lowercase is 3
		{"shrinks", "İ"}, // 2 bytes, lowercase is 1
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testutil.Decision("DEC-001", 1, decision.StateCommitted)
			d.Body = "\n\n## Decision\n\n" + strings.Repeat(tt.filler, 100) + " foo bar\n"

			var res *Results
			require.NotPanics(t, func() {
				res = Search(graph.Build([]*decision.Decision{d}), []string{"FOO"})
			})
			require.Equal(t, 1, res.Count)
			assert.Contains(t, res.Results[0].Snippet, "foo bar")
			assert.True(t, utf8.ValidString(res.Results[0].Snippet))
		})
	}
}

func TestFoldWithOffsets(t *testing.T) {
	lower, offsets := foldWithOffsets("AȺb")
	assert.Equal(t, "aⱥb", lower)
	require.Len(t, offsets, len(lower)+1)
	assert.Equal(t, []int{0, 1, 1, 1, 3, 4}, offsets)
}
