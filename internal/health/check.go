package health

import (
	"strings"

	"github.com/fraim-ai/fraim-toolkit/internal/decision"
	"github.com/fraim-ai/fraim-toolkit/internal/graph"
)

// Match is a committed decision relevant to a keyword.
type Match struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Level   decision.Level `json:"level"`
	Scope   decision.Scope `json:"scope"`
	Keyword string         `json:"keyword"`
}

// CheckResult is the answer to "does the graph already say something about this".
type CheckResult struct {
	Keywords       []string         `json:"keywords"`
	Matches        []Match          `json:"matches"`
	FoundationThin bool             `json:"foundation_thin"`
	Certainty      []LevelCertainty `json:"certainty"`
}

// Check returns committed decisions whose title or body contains any keyword,
// case-insensitively, together with the foundation certainty signal.
// Each decision is reported once, under the first keyword it matched.
func Check(g *graph.Graph, keywords []string, thinThreshold float64) *CheckResult {
	if thinThreshold <= 0 {
		thinThreshold = DefaultThinThreshold
	}

	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}

	res := &CheckResult{
		Keywords:  lowered,
		Matches:   []Match{},
		Certainty: certainty(g, thinThreshold),
	}
	for _, lc := range res.Certainty {
		if lc.Level <= decision.LevelDirection && lc.Thin {
			res.FoundationThin = true
		}
	}

	for _, d := range g.Nodes() {
		if d.State != decision.StateCommitted {
			continue
		}
		text := strings.ToLower(d.Title + "\n" + d.Body)
		for _, k := range lowered {
			if strings.Contains(text, k) {
				res.Matches = append(res.Matches, Match{
					ID: d.ID, Title: d.Title, Level: d.Level, Scope: d.Scope, Keyword: k,
				})
				break
			}
		}
	}
	return res
}
