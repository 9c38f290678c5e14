// Package manifest compiles the deterministic, dependency-ordered selection
// of decisions that downstream contract generation consumes.
//
// Ordering is level ascending, then topological within the level, then id.
// The same graph always yields the same bytes, whatever order the documents
// were loaded in.
package manifest

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fraim-ai/fraim-toolkit/internal/decision"
	"github.com/fraim-ai/fraim-toolkit/internal/errors"
	"github.com/fraim-ai/fraim-toolkit/internal/graph"
)

// Target selects which contract the manifest is for.
type Target string

const (
	TargetHuman Target = "human"
	TargetAgent Target = "agent"
	TargetAll   Target = "all"
)

// ParseTarget accepts human, agent, all, or empty (all).
func ParseTarget(s string) (Target, error) {
	switch t := Target(strings.TrimSpace(s)); t {
	case "":
		return TargetAll, nil
	case TargetHuman, TargetAgent, TargetAll:
		return t, nil
	}
	return "", errors.NewStructuralError(errors.CodeInvalidField,
		fmt.Sprintf("--target must be 'human', 'agent' or 'all', got '%s'", s)).WithField("target")
}

// Options controls Compile.
type Options struct {
	Target Target
	// IncludeSuggested adds suggested decisions to the compilation order.
	IncludeSuggested bool
}

// Summary is the compact form of a decision in a manifest.
type Summary struct {
	ID     string          `json:"id"`
	Title  string          `json:"title"`
	Level  decision.Level  `json:"level"`
	State  decision.State  `json:"state"`
	Stakes decision.Stakes `json:"stakes,omitempty"`
	Scope  decision.Scope  `json:"scope"`
}

// Counts totals the whole graph, not just the eligible nodes.
type Counts struct {
	Total      int            `json:"total"`
	Committed  int            `json:"committed"`
	Suggested  int            `json:"suggested"`
	Superseded int            `json:"superseded"`
	ByLevel    map[string]int `json:"by_level"`
}

// LevelGroup is one level of the human manifest.
type LevelGroup struct {
	Level     decision.Level `json:"level"`
	Name      string         `json:"name"`
	Committed []Summary      `json:"committed"`
	Suggested []Summary      `json:"suggested,omitempty"`
}

// Human is the manifest for the human-readable contract.
type Human struct {
	Levels []LevelGroup `json:"levels"`
}

// Agent is the manifest for the agent contract.
type Agent struct {
	Constitution []Summary `json:"constitution"`
	HighStakes   []Summary `json:"high_stakes"`
	AllCommitted []Summary `json:"all_committed"`
	AllSuggested []Summary `json:"all_suggested"`
}

// Manifest is the compiled output.
type Manifest struct {
	Target           Target `json:"target"`
	IncludeSuggested bool   `json:"include_suggested"`
	// Order is the compilation order of eligible decisions.
	Order  []string `json:"order"`
	Human  *Human   `json:"human,omitempty"`
	Agent  *Agent   `json:"agent,omitempty"`
	Counts Counts   `json:"counts"`
}

// Compile builds the manifest of g.
func Compile(g *graph.Graph, opts Options) (*Manifest, error) {
	target, err := ParseTarget(string(opts.Target))
	if err != nil {
		return nil, err
	}

	all := Order(g, g.IDs())
	m := &Manifest{
		Target:           target,
		IncludeSuggested: opts.IncludeSuggested,
		Order:            Order(g, eligible(g, opts.IncludeSuggested)),
		Counts:           count(g),
	}
	if target == TargetHuman || target == TargetAll {
		m.Human = human(g, all, opts.IncludeSuggested)
	}
	if target == TargetAgent || target == TargetAll {
		m.Agent = agent(g, all)
	}
	return m, nil
}

func eligible(g *graph.Graph, includeSuggested bool) []string {
	var ids []string
	for _, d := range g.Nodes() {
		if d.State == decision.StateCommitted || (includeSuggested && d.State == decision.StateSuggested) {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// Order sorts ids by level, then dependency order within each level, then id.
func Order(g *graph.Graph, ids []string) []string {
	byLevel := make(map[decision.Level][]string)
	for _, id := range ids {
		d, ok := g.Get(id)
		if !ok {
			continue
		}
		byLevel[d.Level] = append(byLevel[d.Level], id)
	}

	levels := make([]int, 0, len(byLevel))
	for l := range byLevel {
		levels = append(levels, int(l))
	}
	sort.Ints(levels)

	out := make([]string, 0, len(ids))
	for _, l := range levels {
		out = append(out, g.TopoOrder(byLevel[decision.Level(l)])...)
	}
	return out
}

func summarize(g *graph.Graph, id string) Summary {
	d, _ := g.Get(id)
	return Summary{ID: d.ID, Title: d.Title, Level: d.Level, State: d.State, Stakes: d.Stakes, Scope: d.Scope}
}

func count(g *graph.Graph) Counts {
	c := Counts{ByLevel: make(map[string]int)}
	for _, d := range g.Nodes() {
		c.Total++
		c.ByLevel[strconv.Itoa(int(d.Level))]++
		switch d.State {
		case decision.StateCommitted:
			c.Committed++
		case decision.StateSuggested:
			c.Suggested++
		case decision.StateSuperseded:
			c.Superseded++
		}
	}
	return c
}

func human(g *graph.Graph, order []string, includeSuggested bool) *Human {
	h := &Human{}
	for _, lvl := range decision.Levels {
		group := LevelGroup{Level: lvl, Name: lvl.Name(), Committed: []Summary{}}
		for _, id := range order {
			s := summarize(g, id)
			if s.Level != lvl {
				continue
			}
			switch {
			case s.State == decision.StateCommitted:
				group.Committed = append(group.Committed, s)
			case s.State == decision.StateSuggested && includeSuggested:
				group.Suggested = append(group.Suggested, s)
			}
		}
		h.Levels = append(h.Levels, group)
	}
	return h
}

func agent(g *graph.Graph, order []string) *Agent {
	a := &Agent{
		Constitution: []Summary{},
		HighStakes:   []Summary{},
		AllCommitted: []Summary{},
		AllSuggested: []Summary{},
	}
	for _, id := range order {
		s := summarize(g, id)
		if s.Scope == decision.ScopeGovernance {
			a.Constitution = append(a.Constitution, s)
		}
		if s.Stakes == decision.StakesHigh {
			a.HighStakes = append(a.HighStakes, s)
		}
		switch s.State {
		case decision.StateCommitted:
			a.AllCommitted = append(a.AllCommitted, s)
		case decision.StateSuggested:
			a.AllSuggested = append(a.AllSuggested, s)
		}
	}
	return a
}

// Render formats m as text. Each contract gets its own section.
func Render(m *Manifest) string {
	var sb strings.Builder
	if m.Human != nil {
		sb.WriteString("# Compile Manifest — Human Contract\n\n")
		for _, group := range m.Human.Levels {
			fmt.Fprintf(&sb, "## %s (Level %d)\n\n", group.Name, group.Level)
			for _, s := range group.Committed {
				fmt.Fprintf(&sb, "  - %s: %s%s\n", s.ID, s.Title, stakesTag(s))
			}
			if len(group.Suggested) > 0 {
				sb.WriteString("  Suggested:\n")
				for _, s := range group.Suggested {
					fmt.Fprintf(&sb, "  - %s: %s%s\n", s.ID, s.Title, stakesTag(s))
				}
			}
			sb.WriteString("\n")
		}
		writeTotal(&sb, m.Counts)
	}

	if m.Agent != nil {
		if m.Human != nil {
			sb.WriteString("\n")
		}
		sb.WriteString("# Compile Manifest — Agent Contract\n\n")
		writeStateList(&sb, "Constitution", m.Agent.Constitution)
		writeStateList(&sb, "High Stakes", m.Agent.HighStakes)
		writeStakesList(&sb, "All Committed", m.Agent.AllCommitted)
		if len(m.Agent.AllSuggested) > 0 {
			writeStakesList(&sb, "All Suggested", m.Agent.AllSuggested)
		}
		writeTotal(&sb, m.Counts)
	}

	sb.WriteString("\nOrder: ")
	if len(m.Order) == 0 {
		sb.WriteString("—")
	}
	sb.WriteString(strings.Join(m.Order, ", "))
	sb.WriteString("\n")
	return sb.String()
}

func stakesTag(s Summary) string {
	if s.Stakes == "" {
		return ""
	}
	return " [" + string(s.Stakes) + "]"
}

func writeStateList(sb *strings.Builder, heading string, list []Summary) {
	fmt.Fprintf(sb, "## %s (%d decisions)\n", heading, len(list))
	for _, s := range list {
		fmt.Fprintf(sb, "  - %s: %s [%s]\n", s.ID, s.Title, s.State)
	}
	sb.WriteString("\n")
}

func writeStakesList(sb *strings.Builder, heading string, list []Summary) {
	fmt.Fprintf(sb, "## %s (%d decisions)\n", heading, len(list))
	for _, s := range list {
		fmt.Fprintf(sb, "  - %s: %s%s\n", s.ID, s.Title, stakesTag(s))
	}
	sb.WriteString("\n")
}

func writeTotal(sb *strings.Builder, c Counts) {
	fmt.Fprintf(sb, "Total: %d decisions (%d committed, %d suggested)\n", c.Total, c.Committed, c.Suggested)
}
