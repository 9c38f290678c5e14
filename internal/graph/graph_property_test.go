package graph

import (
	"fmt"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/fraim-ai/fraim-toolkit/internal/decision"
)

const propNodes = 8

// edgeGraph decodes each code as an edge (code/8 depends on code%8) over
// eight nodes and returns the graph with its adjacency for reference checks.
func edgeGraph(codes []int) (*Graph, map[int][]int) {
	adj := make(map[int][]int)
	for _, c := range codes {
		from, to := c/propNodes, c%propNodes
		if !slices.Contains(adj[from], to) {
			adj[from] = append(adj[from], to)
		}
	}
	var ds []*decision.Decision
	for i := 0; i < propNodes; i++ {
		var deps []string
		for _, to := range adj[i] {
			deps = append(deps, propID(to))
		}
		ds = append(ds, node(propID(i), 1, decision.StateSuggested, deps...))
	}
	return Build(ds), adj
}

func propID(i int) string { return fmt.Sprintf("DEC-%03d", i) }

// naiveDependents computes the transitive dependents of origin by fixpoint iteration.
func naiveDependents(adj map[int][]int, origin int) map[string]bool {
	reached := map[int]bool{}
	changed := true
	for changed {
		changed = false
		for from, tos := range adj {
			if reached[from] {
				continue
			}
			for _, to := range tos {
				if to == origin || reached[to] {
					reached[from] = true
					changed = true
					break
				}
			}
		}
	}
	out := make(map[string]bool)
	for i := range reached {
		if i != origin {
			out[propID(i)] = true
		}
	}
	return out
}

// isDAG repeatedly removes nodes without remaining dependencies.
func isDAG(adj map[int][]int) bool {
	removed := map[int]bool{}
	for progress := true; progress; {
		progress = false
		for i := 0; i < propNodes; i++ {
			if removed[i] {
				continue
			}
			free := true
			for _, to := range adj[i] {
				if !removed[to] {
					free = false
					break
				}
			}
			if free {
				removed[i] = true
				progress = true
			}
		}
	}
	return len(removed) == propNodes
}

func edgeCodes() gopter.Gen {
	return gen.SliceOf(gen.IntRange(0, propNodes*propNodes-1))
}

func TestCascadeIsTransitiveClosure(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("forward cascade equals transitive dependents, excluding origin", prop.ForAll(
		func(codes []int, origin int) bool {
			g, adj := edgeGraph(codes)
			c, err := g.Cascade(propID(origin), Forward)
			if err != nil {
				return false
			}
			got := make(map[string]bool)
			for _, id := range c.Affected() {
				if got[id] || id == propID(origin) {
					return false
				}
				got[id] = true
			}
			want := naiveDependents(adj, origin)
			if len(got) != len(want) {
				return false
			}
			for id := range want {
				if !got[id] {
					return false
				}
			}
			return true
		},
		edgeCodes(),
		gen.IntRange(0, propNodes-1),
	))

	properties.TestingRun(t)
}

func TestCyclesIffNotDAG(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("cycles reported exactly when the graph is not a DAG", prop.ForAll(
		func(codes []int) bool {
			g, adj := edgeGraph(codes)
			return (len(g.Cycles()) == 0) == isDAG(adj)
		},
		edgeCodes(),
	))

	properties.Property("every reported cycle is a closed path of real edges", prop.ForAll(
		func(codes []int) bool {
			g, _ := edgeGraph(codes)
			for _, c := range g.Cycles() {
				if c[0] != c[len(c)-1] {
					return false
				}
				for i := 0; i+1 < len(c); i++ {
					if !slices.Contains(g.DependsOn(c[i]), c[i+1]) {
						return false
					}
				}
			}
			return true
		},
		edgeCodes(),
	))

	properties.TestingRun(t)
}

func TestTopoOrderProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("order is deterministic and dependencies come first in a DAG", prop.ForAll(
		func(codes []int) bool {
			g, adj := edgeGraph(codes)
			first := g.TopoOrder(g.IDs())
			second := g.TopoOrder(g.IDs())
			if !slices.Equal(first, second) || len(first) != propNodes {
				return false
			}
			if !isDAG(adj) {
				return true
			}
			pos := make(map[string]int, len(first))
			for i, id := range first {
				pos[id] = i
			}
			for _, id := range first {
				for _, dep := range g.DependsOn(id) {
					if pos[dep] > pos[id] {
						return false
					}
				}
			}
			return true
		},
		edgeCodes(),
	))

	properties.TestingRun(t)
}
