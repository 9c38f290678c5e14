package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/fraim-ai/fraim-toolkit/internal/decision"
	"github.com/fraim-ai/fraim-toolkit/internal/errors"
	"github.com/fraim-ai/fraim-toolkit/internal/graph"
	"github.com/fraim-ai/fraim-toolkit/internal/store"
)

var (
	staleINF   = regexp.MustCompile(`\bINF-\d{3}\b`)
	staleCTX   = regexp.MustCompile(`\bCTX-\d{3}\b`)
	decRef     = regexp.MustCompile(`\bDEC-(\d{3})\b`)
	supersedes = regexp.MustCompile(`[Ss]upersedes?\s+(DEC-\d{3})`)
)

// Graph validates every node of g. issues are documents that failed to load;
// each becomes an error because the graph cannot be trusted without them.
func Graph(g *graph.Graph, issues []store.LoadIssue, rules *Rules) *Report {
	if rules == nil {
		rules = DefaultRules()
	}
	r := newReport()

	for _, li := range issues {
		r.errorf("malformed", "", "%s: %v", li.Path, li.Err)
	}
	for _, dup := range g.Duplicates() {
		r.errorf(string(errors.CodeDuplicateID), dup.ID, "ID collision, defined in %s", strings.Join(dup.Paths, " and "))
	}

	for _, d := range g.Nodes() {
		checkFields(r, d)
		checkGraphEdges(r, g, d)
		checkShape(r, g, d, rules)
		lintBody(r, g, d, rules)
	}

	for _, c := range g.Cycles() {
		r.Errors = append(r.Errors, Issue{
			Severity: SeverityError,
			Code:     string(errors.CodeCycle),
			NodeID:   c[0],
			Message:  "Cycle detected: " + c.String(),
		})
	}
	return r
}

func checkFields(r *Report, d *decision.Decision) {
	if !strings.HasPrefix(d.ID, decision.IDPrefix) {
		r.errorf(string(errors.CodeInvalidID), d.ID, "ID must start with %s", decision.IDPrefix)
	}
	for _, p := range d.Problems {
		r.addStructural(p)
	}
	if strings.TrimSpace(d.Title) == "" {
		r.warnf(string(errors.CodeMissingField), d.ID, "missing title")
	}
	if strings.TrimSpace(d.Date) == "" {
		r.warnf(string(errors.CodeMissingField), d.ID, "missing date")
	}
	for _, section := range decision.MissingSections(d.Body) {
		r.warnf("missing-section", d.ID, "missing required section ## %s", section)
	}
}

func checkGraphEdges(r *Report, g *graph.Graph, d *decision.Decision) {
	for _, dep := range g.Dangling(d.ID) {
		r.errorf(string(errors.CodeDanglingRef), d.ID, "depends_on references non-existent %s", dep)
	}
	for _, depID := range g.DependsOn(d.ID) {
		dep, _ := g.Get(depID)
		if err := levelOrder(d, dep); err != nil {
			r.addStructural(err)
		}
		if err := scopeOrder(d, dep); err != nil {
			r.addStructural(err)
		}
		if d.State == decision.StateCommitted && dep.State != decision.StateCommitted {
			r.warnf("upstream-state", d.ID, "committed but upstream %s is '%s'", depID, dep.State)
		}
	}
}

func checkShape(r *Report, g *graph.Graph, d *decision.Decision, rules *Rules) {
	dependents := g.Dependents(d.ID)
	switch {
	case len(d.DependsOn) == 0 && len(dependents) == 0:
		if d.Level > decision.LevelIdentity {
			r.warnf("orphan", d.ID, "orphan (no upstream or downstream edges)")
		}
	case len(d.DependsOn) == 0 && d.Level >= decision.LevelDirection:
		r.warnf("missing-dep", d.ID, "[missing-dep]: no depends_on, L%d decisions should have upstream dependencies", d.Level)
	}
	if rules.MaxDependencies > 0 && len(d.DependsOn) > rules.MaxDependencies {
		r.warnf("long-deps", d.ID, "[long-deps]: %d dependencies (more than %d)", len(d.DependsOn), rules.MaxDependencies)
	}
}

func lintBody(r *Report, g *graph.Graph, d *decision.Decision, rules *Rules) {
	body := d.Body
	if strings.TrimSpace(body) == "" {
		return
	}

	if ids := uniqueMatches(staleINF, body); len(ids) > 0 {
		r.warnf("stale-ref", d.ID, "[stale-ref]: body references %d stale INF ID(s) (%s)", len(ids), strings.Join(ids, ", "))
	}
	if ids := uniqueMatches(staleCTX, body); len(ids) > 0 {
		r.warnf("stale-ref", d.ID, "[stale-ref]: body references %d stale CTX ID(s) (%s)", len(ids), strings.Join(ids, ", "))
	}

	var broken []string
	for _, ref := range uniqueMatches(decRef, body) {
		if ref != d.ID && !g.Exists(ref) {
			broken = append(broken, ref)
		}
	}
	if len(broken) > 0 {
		r.warnf("broken-ref", d.ID, "[broken-ref]: body references non-existent %s", strings.Join(broken, ", "))
	}

	for _, m := range supersedes.FindAllStringSubmatch(body, -1) {
		target, ok := g.Get(m[1])
		if ok && target.State != decision.StateSuperseded {
			r.warnf("supersession", d.ID, "[supersession]: claims to supersede %s, but %s state is '%s'",
				target.ID, target.ID, target.State)
		}
	}

	if rules.term != nil && !rules.exemptIDs[d.ID] {
		if n := rules.termLines(body); n > 0 {
			r.warnf("terminology", d.ID, "[terminology]: %d line(s) with unexempted '%s' in body text", n, rules.termLabel)
		}
	}

	var labels []string
	for _, a := range rules.artifacts {
		if a.match(body) {
			labels = append(labels, a.label)
		}
	}
	if len(labels) > 0 {
		r.warnf("deleted-artifact", d.ID, "[deleted-artifact]: body references deleted artifacts: %s", strings.Join(labels, ", "))
	}
}

func uniqueMatches(re *regexp.Regexp, body string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range re.FindAllString(body, -1) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}

func levelOrder(d, dep *decision.Decision) *errors.StructuralError {
	if !d.Level.Valid() || !dep.Level.Valid() || dep.Level < d.Level {
		return nil
	}
	return errors.NewStructuralError(errors.CodeLevelOrder,
		fmt.Sprintf("depends on %s (level %d) from level %d, dependency violates level ordering", dep.ID, dep.Level, d.Level)).
		WithNode(d.ID).WithField("depends_on").WithRelated(dep.ID)
}

func scopeOrder(d, dep *decision.Decision) *errors.StructuralError {
	if d.Scope != decision.ScopeGovernance || dep.Scope != decision.ScopeProject {
		return nil
	}
	return errors.NewStructuralError(errors.CodeScopeOrder,
		fmt.Sprintf("governance node depends on project node %s", dep.ID)).
		WithNode(d.ID).WithField("depends_on").WithRelated(dep.ID)
}
