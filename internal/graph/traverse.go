package graph

import (
	"sort"

	"github.com/fraim-ai/fraim-toolkit/internal/decision"
)

// Visit is one node reached by a traversal.
type Visit struct {
	ID    string
	Depth int    // 1 for direct neighbors of the origin
	Via   string // neighbor through which ID was first reached
}

// Traverse walks breadth-first from origin in dir. Every reachable node is
// visited exactly once at its shortest distance; origin itself is excluded.
// Within a depth, nodes are ordered by the order of their parents, then id.
func (g *Graph) Traverse(origin string, dir Direction) []Visit {
	if !g.Exists(origin) {
		return nil
	}
	visited := map[string]bool{origin: true}
	frontier := []string{origin}
	var visits []Visit

	for depth := 1; len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			neighbors := g.Neighbors(id, dir)
			sort.Strings(neighbors)
			for _, n := range neighbors {
				if visited[n] {
					continue
				}
				visited[n] = true
				visits = append(visits, Visit{ID: n, Depth: depth, Via: id})
				next = append(next, n)
			}
		}
		frontier = next
	}
	return visits
}

// Closure returns the set of ids reachable from origin in dir, excluding origin.
func (g *Graph) Closure(origin string, dir Direction) map[string]bool {
	set := make(map[string]bool)
	for _, v := range g.Traverse(origin, dir) {
		set[v.ID] = true
	}
	return set
}

// Weight is the number of nodes that transitively depend on id.
func (g *Graph) Weight(id string) int {
	return len(g.Traverse(id, Forward))
}

// Weights computes Weight for every node.
func (g *Graph) Weights() map[string]int {
	w := make(map[string]int, len(g.ids))
	for _, id := range g.ids {
		w[id] = g.Weight(id)
	}
	return w
}

// CriticalPath returns the longest chain of uncommitted upstream decisions
// blocking target, deepest first and excluding target. When no chain longer
// than one hop exists it returns the direct uncommitted dependencies.
func (g *Graph) CriticalPath(target string) []string {
	uncommitted := func(id string) bool {
		d, ok := g.nodes[id]
		return ok && d.State != decision.StateCommitted
	}

	parent := make(map[string]string)
	depth := map[string]int{target: 0}
	queue := []string{target}
	var order []string

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range g.DependsOn(cur) {
			if _, seen := depth[dep]; seen || !uncommitted(dep) {
				continue
			}
			depth[dep] = depth[cur] + 1
			parent[dep] = cur
			order = append(order, dep)
			queue = append(queue, dep)
		}
	}

	if len(order) == 0 {
		return nil
	}

	deepest := order[0]
	for _, id := range order[1:] {
		if depth[id] > depth[deepest] {
			deepest = id
		}
	}
	if depth[deepest] == 1 {
		var direct []string
		for _, dep := range g.DependsOn(target) {
			if uncommitted(dep) {
				direct = append(direct, dep)
			}
		}
		return direct
	}

	var path []string
	for cur := deepest; cur != target; cur = parent[cur] {
		path = append(path, cur)
	}
	return path
}
