// Package frontier computes what can be decided next: suggested decisions
// whose upstream is committed, those still blocked and by what, per-level
// gaps, and the decisions with the most downstream weight.
package frontier

import (
	"sort"

	"github.com/fraim-ai/fraim-toolkit/internal/decision"
	"github.com/fraim-ai/fraim-toolkit/internal/graph"
)

// DefaultTop is the number of high-weight nodes listed when no limit is given.
const DefaultTop = 10

// Entry describes one suggested decision.
type Entry struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Level            decision.Level  `json:"level"`
	Stakes           decision.Stakes `json:"stakes,omitempty"`
	Scope            decision.Scope  `json:"scope"`
	DownstreamWeight int             `json:"downstream_weight"`
	DownstreamIDs    []string        `json:"downstream_ids"`
}

// Blocked is a suggested decision that cannot be committed yet.
type Blocked struct {
	Entry
	// Blockers are existing dependencies that are not committed.
	Blockers []string `json:"blockers"`
	// Missing are dependencies that name no decision.
	Missing            []string `json:"missing,omitempty"`
	CriticalPath       []string `json:"critical_path"`
	CriticalPathLength int      `json:"critical_path_length"`
}

// LevelGap summarizes the state mix of one level.
type LevelGap struct {
	Level      decision.Level `json:"level"`
	LevelName  string         `json:"level_name"`
	Committed  int            `json:"committed"`
	Suggested  int            `json:"suggested"`
	Superseded int            `json:"superseded"`
	Total      int            `json:"total"`
	Flags      []string       `json:"flags"`
}

// Weighted is a decision ranked by downstream weight.
type Weighted struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Level            decision.Level  `json:"level"`
	State            decision.State  `json:"state"`
	Stakes           decision.Stakes `json:"stakes,omitempty"`
	Scope            decision.Scope  `json:"scope"`
	DownstreamWeight int             `json:"downstream_weight"`
	DirectDependents []string        `json:"direct_dependents"`
}

// Summary counts the frontier.
type Summary struct {
	TotalDecisions   int `json:"total_decisions"`
	Suggested        int `json:"suggested"`
	CommittableCount int `json:"committable_count"`
	BlockedCount     int `json:"blocked_count"`
	LevelGapCount    int `json:"level_gap_count"`
}

// Frontier is the full frontier report.
type Frontier struct {
	Committable []Entry    `json:"committable_now"`
	Blocked     []Blocked  `json:"blocked"`
	LevelGaps   []LevelGap `json:"level_gaps"`
	HighWeight  []Weighted `json:"high_weight"`
	Top         int        `json:"top"`
	Summary     Summary    `json:"summary"`
}

// Compute builds the frontier of g, listing at most top high-weight nodes.
func Compute(g *graph.Graph, top int) *Frontier {
	if top <= 0 {
		top = DefaultTop
	}
	f := &Frontier{
		Committable: []Entry{},
		Blocked:     []Blocked{},
		HighWeight:  []Weighted{},
		Top:         top,
	}

	downstream := make(map[string][]string, g.Len())
	for _, id := range g.IDs() {
		var ids []string
		for _, v := range g.Traverse(id, graph.Forward) {
			ids = append(ids, v.ID)
		}
		sort.Strings(ids)
		if ids == nil {
			ids = []string{}
		}
		downstream[id] = ids
	}

	for _, d := range g.Nodes() {
		if d.State == decision.StateSuggested {
			f.Summary.Suggested++
			f.classify(g, d, downstream[d.ID])
		}
		f.HighWeight = append(f.HighWeight, Weighted{
			ID:               d.ID,
			Title:            d.Title,
			Level:            d.Level,
			State:            d.State,
			Stakes:           d.Stakes,
			Scope:            d.Scope,
			DownstreamWeight: len(downstream[d.ID]),
			DirectDependents: nonNil(g.Dependents(d.ID)),
		})
	}

	sort.SliceStable(f.Committable, func(i, j int) bool {
		a, b := f.Committable[i], f.Committable[j]
		if a.DownstreamWeight != b.DownstreamWeight {
			return a.DownstreamWeight > b.DownstreamWeight
		}
		if a.Level != b.Level {
			return a.Level < b.Level
		}
		return a.ID < b.ID
	})
	sort.SliceStable(f.Blocked, func(i, j int) bool {
		a, b := f.Blocked[i], f.Blocked[j]
		if a.CriticalPathLength != b.CriticalPathLength {
			return a.CriticalPathLength < b.CriticalPathLength
		}
		return a.DownstreamWeight > b.DownstreamWeight
	})
	sort.SliceStable(f.HighWeight, func(i, j int) bool {
		return f.HighWeight[i].DownstreamWeight > f.HighWeight[j].DownstreamWeight
	})
	if len(f.HighWeight) > top {
		f.HighWeight = f.HighWeight[:top]
	}

	f.LevelGaps = levelGaps(g)
	for _, lg := range f.LevelGaps {
		if len(lg.Flags) > 0 {
			f.Summary.LevelGapCount++
		}
	}
	f.Summary.TotalDecisions = g.Len()
	f.Summary.CommittableCount = len(f.Committable)
	f.Summary.BlockedCount = len(f.Blocked)
	return f
}

func (f *Frontier) classify(g *graph.Graph, d *decision.Decision, downstream []string) {
	entry := Entry{
		ID:               d.ID,
		Title:            d.Title,
		Level:            d.Level,
		Stakes:           d.Stakes,
		Scope:            d.Scope,
		DownstreamWeight: len(downstream),
		DownstreamIDs:    downstream,
	}

	var blockers []string
	for _, depID := range g.DependsOn(d.ID) {
		if dep, _ := g.Get(depID); dep.State != decision.StateCommitted {
			blockers = append(blockers, depID)
		}
	}
	missing := g.Dangling(d.ID)

	if len(blockers) == 0 && len(missing) == 0 {
		f.Committable = append(f.Committable, entry)
		return
	}
	path := nonNil(g.CriticalPath(d.ID))
	f.Blocked = append(f.Blocked, Blocked{
		Entry:              entry,
		Blockers:           nonNil(blockers),
		Missing:            missing,
		CriticalPath:       path,
		CriticalPathLength: len(path),
	})
}

// Reason explains why b is blocked.
func (b Blocked) Reason() string {
	var parts []string
	if len(b.Blockers) > 0 {
		parts = append(parts, "uncommitted: "+decision.FormatIDList(b.Blockers))
	}
	if len(b.Missing) > 0 {
		parts = append(parts, "missing: "+decision.FormatIDList(b.Missing))
	}
	if len(parts) == 2 {
		return parts[0] + "; " + parts[1]
	}
	return parts[0]
}

func levelGaps(g *graph.Graph) []LevelGap {
	gaps := make([]LevelGap, 0, len(decision.Levels))
	for _, lvl := range decision.Levels {
		gap := LevelGap{Level: lvl, LevelName: lvl.Name(), Flags: []string{}}
		for _, d := range g.Nodes() {
			if d.Level != lvl {
				continue
			}
			switch d.State {
			case decision.StateCommitted:
				gap.Committed++
			case decision.StateSuggested:
				gap.Suggested++
			case decision.StateSuperseded:
				gap.Superseded++
			}
		}
		gap.Total = gap.Committed + gap.Suggested + gap.Superseded
		if gap.Suggested > gap.Committed {
			gap.Flags = append(gap.Flags, "more suggested than committed")
		}
		if gap.Committed == 0 && gap.Total > 0 {
			gap.Flags = append(gap.Flags, "no committed decisions")
		}
		gaps = append(gaps, gap)
	}
	return gaps
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
