package health

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fraim-ai/fraim-toolkit/internal/decision"
	"github.com/fraim-ai/fraim-toolkit/internal/graph"
	"github.com/fraim-ai/fraim-toolkit/internal/store"
	"github.com/fraim-ai/fraim-toolkit/internal/util"
)

// IndexFile is the name of the derived listing in each scope directory.
const IndexFile = "INDEX.md"

var indexTitles = map[decision.Scope]string{
	decision.ScopeGovernance: "Constitution Index",
	decision.ScopeProject:    "DNA Index",
}

// RenderIndex lists nodes grouped by level, each group ordered by id.
func RenderIndex(scope decision.Scope, nodes []*decision.Decision) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", indexTitles[scope])
	sb.WriteString("Derived index. Regenerate via `dna index`. Do not edit directly.\n\n")
	fmt.Fprintf(&sb, "**Total:** %d decisions\n", len(nodes))

	for _, lvl := range decision.Levels {
		var group []*decision.Decision
		for _, d := range nodes {
			if d.Level == lvl {
				group = append(group, d)
			}
		}
		if len(group) > 0 {
			writeIndexGroup(&sb, fmt.Sprintf("L%d — %s", lvl, lvl.Name()), group)
		}
	}

	var other []*decision.Decision
	for _, d := range nodes {
		if !d.Level.Valid() {
			other = append(other, d)
		}
	}
	if len(other) > 0 {
		writeIndexGroup(&sb, "Invalid level", other)
	}
	return sb.String()
}

func writeIndexGroup(sb *strings.Builder, heading string, group []*decision.Decision) {
	fmt.Fprintf(sb, "\n## %s\n\n", heading)
	sb.WriteString("| ID | Title | Level | State | Stakes | Depends On |\n")
	sb.WriteString("|----|-------|-------|-------|--------|------------|\n")
	for _, d := range group {
		deps := "—"
		if len(d.DependsOn) > 0 {
			deps = strings.Join(d.DependsOn, ", ")
		}
		fmt.Fprintf(sb, "| %s | %s | %d | %s | %s | %s |\n",
			d.ID, util.EscapeCell(d.Title), d.Level, d.State, d.Stakes, deps)
	}
}

// IndexResult reports one written index.
type IndexResult struct {
	Scope decision.Scope `json:"scope"`
	Path  string         `json:"path"`
	Count int            `json:"count"`
}

// WriteIndexes regenerates INDEX.md in both scope directories. The
// governance index is skipped when that scope has no decisions and no
// directory.
func WriteIndexes(st *store.Store, g *graph.Graph) ([]IndexResult, error) {
	byScope := make(map[decision.Scope][]*decision.Decision)
	for _, d := range g.Nodes() {
		byScope[d.Scope] = append(byScope[d.Scope], d)
	}

	var results []IndexResult
	for _, scope := range store.Scopes() {
		dir := st.Dir(scope)
		nodes := byScope[scope]
		if scope == decision.ScopeGovernance && len(nodes) == 0 {
			if _, err := os.Stat(dir); err != nil {
				continue
			}
		}
		path := filepath.Join(dir, IndexFile)
		if err := store.WriteFileAtomic(path, []byte(RenderIndex(scope, nodes)), 0o644); err != nil {
			return results, err
		}
		results = append(results, IndexResult{Scope: scope, Path: path, Count: len(nodes)})
	}
	return results, nil
}
