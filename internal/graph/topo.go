package graph

import (
	"sort"
)

// TopoOrder orders ids so that every id comes after those of its dependencies
// that are also in ids. Among ready nodes the smallest id is taken first, so
// the result depends only on the input set. Nodes caught in a cycle are
// appended at the end in id order.
func (g *Graph) TopoOrder(ids []string) []string {
	in := make(map[string]bool, len(ids))
	for _, id := range ids {
		in[id] = true
	}

	indegree := make(map[string]int, len(in))
	for id := range in {
		for _, dep := range g.DependsOn(id) {
			if in[dep] && dep != id {
				indegree[id]++
			}
		}
	}

	var ready []string
	for id := range in {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(in))
	placed := make(map[string]bool, len(in))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		placed[id] = true

		released := false
		for _, child := range g.dependents[id] {
			if !in[child] || placed[child] || child == id {
				continue
			}
			indegree[child]--
			if indegree[child] == 0 {
				ready = append(ready, child)
				released = true
			}
		}
		if released {
			sort.Strings(ready)
		}
	}

	if len(order) < len(in) {
		var rest []string
		for id := range in {
			if !placed[id] {
				rest = append(rest, id)
			}
		}
		sort.Strings(rest)
		order = append(order, rest...)
	}
	return order
}
