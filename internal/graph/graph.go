package graph

import (
	"slices"
	"sort"

	"github.com/fraim-ai/fraim-toolkit/internal/decision"
)

// Direction selects which edges a traversal follows.
type Direction string

const (
	// Forward walks from a node to the nodes that depend on it.
	Forward Direction = "forward"
	// Reverse walks from a node to the nodes it depends on.
	Reverse Direction = "reverse"
)

// ParseDirection accepts forward/reverse and the aliases downstream/upstream.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "", "forward", "downstream":
		return Forward, true
	case "reverse", "upstream":
		return Reverse, true
	}
	return "", false
}

// Duplicate records an id defined by more than one document.
type Duplicate struct {
	ID    string
	Paths []string
}

// Graph is an immutable view of a decision set.
type Graph struct {
	nodes      map[string]*decision.Decision
	ids        []string            // sorted
	dependents map[string][]string // id -> sorted ids that depend on it
	duplicates []Duplicate
}

// Build indexes decisions by id. When an id appears more than once the first
// occurrence wins and the collision is reported by Duplicates.
func Build(decisions []*decision.Decision) *Graph {
	g := &Graph{
		nodes:      make(map[string]*decision.Decision, len(decisions)),
		dependents: make(map[string][]string),
	}

	dupPaths := make(map[string][]string)
	for _, d := range decisions {
		if first, ok := g.nodes[d.ID]; ok {
			if len(dupPaths[d.ID]) == 0 {
				dupPaths[d.ID] = []string{first.Path}
			}
			dupPaths[d.ID] = append(dupPaths[d.ID], d.Path)
			continue
		}
		g.nodes[d.ID] = d
		g.ids = append(g.ids, d.ID)
	}
	sort.Strings(g.ids)

	for _, id := range g.ids {
		for _, dep := range uniqueDeps(g.nodes[id]) {
			g.dependents[dep] = append(g.dependents[dep], id)
		}
	}

	for id, paths := range dupPaths {
		g.duplicates = append(g.duplicates, Duplicate{ID: id, Paths: paths})
	}
	sort.Slice(g.duplicates, func(i, j int) bool { return g.duplicates[i].ID < g.duplicates[j].ID })
	return g
}

func uniqueDeps(d *decision.Decision) []string {
	seen := make(map[string]bool, len(d.DependsOn))
	deps := make([]string, 0, len(d.DependsOn))
	for _, dep := range d.DependsOn {
		if !seen[dep] {
			seen[dep] = true
			deps = append(deps, dep)
		}
	}
	return deps
}

// With returns a copy of the graph in which d replaces the node with the same
// id, or is added when no such node exists.
func (g *Graph) With(d *decision.Decision) *Graph {
	decisions := make([]*decision.Decision, 0, len(g.ids)+1)
	replaced := false
	for _, id := range g.ids {
		if id == d.ID {
			decisions = append(decisions, d)
			replaced = true
			continue
		}
		decisions = append(decisions, g.nodes[id])
	}
	if !replaced {
		decisions = append(decisions, d)
	}
	next := Build(decisions)
	next.duplicates = g.duplicates
	return next
}

// Len returns the number of distinct ids.
func (g *Graph) Len() int { return len(g.ids) }

// Exists reports whether id is a node of the graph.
func (g *Graph) Exists(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Get returns the decision with id.
func (g *Graph) Get(id string) (*decision.Decision, bool) {
	d, ok := g.nodes[id]
	return d, ok
}

// IDs returns all node ids in ascending order.
func (g *Graph) IDs() []string {
	return slices.Clone(g.ids)
}

// Nodes returns all decisions ordered by id.
func (g *Graph) Nodes() []*decision.Decision {
	out := make([]*decision.Decision, 0, len(g.ids))
	for _, id := range g.ids {
		out = append(out, g.nodes[id])
	}
	return out
}

// Duplicates returns ids defined by more than one document.
func (g *Graph) Duplicates() []Duplicate {
	return slices.Clone(g.duplicates)
}

// DependsOn returns the existing dependencies of id, in declaration order.
// Dangling references are omitted.
func (g *Graph) DependsOn(id string) []string {
	d, ok := g.nodes[id]
	if !ok {
		return nil
	}
	var deps []string
	for _, dep := range uniqueDeps(d) {
		if g.Exists(dep) {
			deps = append(deps, dep)
		}
	}
	return deps
}

// Dependents returns the ids that list id in depends_on, sorted.
func (g *Graph) Dependents(id string) []string {
	return slices.Clone(g.dependents[id])
}

// Neighbors returns the adjacent ids of id in the given direction.
func (g *Graph) Neighbors(id string, dir Direction) []string {
	if dir == Reverse {
		return g.DependsOn(id)
	}
	return g.Dependents(id)
}

// Dangling returns the depends_on entries of id that name no node.
func (g *Graph) Dangling(id string) []string {
	d, ok := g.nodes[id]
	if !ok {
		return nil
	}
	var missing []string
	for _, dep := range uniqueDeps(d) {
		if !g.Exists(dep) {
			missing = append(missing, dep)
		}
	}
	return missing
}

// Orphan reports whether id has neither dependencies nor dependents.
func (g *Graph) Orphan(id string) bool {
	d, ok := g.nodes[id]
	return ok && len(d.DependsOn) == 0 && len(g.dependents[id]) == 0
}
