package graph

import (
	"slices"
	"strings"
)

// Cycle is a closed dependency path; the first id is repeated at the end.
type Cycle []string

// String renders the cycle as "A → B → A".
func (c Cycle) String() string {
	return strings.Join(c, " → ")
}

// Members returns the distinct ids on the cycle, sorted.
func (c Cycle) Members() []string {
	if len(c) == 0 {
		return nil
	}
	members := slices.Clone(c[:len(c)-1])
	slices.Sort(members)
	return members
}

// Cycles returns every elementary cycle found by a depth-first search over
// depends_on edges. Each distinct cycle is reported once, rotated so that it
// starts at its smallest id. The graph is a DAG iff the result is empty.
func (g *Graph) Cycles() []Cycle {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(g.ids))
	seen := make(map[string]bool)
	var cycles []Cycle

	var path []string
	var visit func(id string)
	visit = func(id string) {
		color[id] = gray
		path = append(path, id)

		for _, dep := range g.DependsOn(id) {
			switch color[dep] {
			case gray:
				start := slices.Index(path, dep)
				c := canonical(path[start:])
				if key := c.String(); !seen[key] {
					seen[key] = true
					cycles = append(cycles, c)
				}
			case white:
				visit(dep)
			}
		}

		path = path[:len(path)-1]
		color[id] = black
	}

	for _, id := range g.ids {
		if color[id] == white {
			visit(id)
		}
	}
	return cycles
}

// canonical rotates an open cycle so its smallest id comes first, then closes it.
func canonical(open []string) Cycle {
	minIdx := 0
	for i, id := range open {
		if id < open[minIdx] {
			minIdx = i
		}
	}
	c := make(Cycle, 0, len(open)+1)
	c = append(c, open[minIdx:]...)
	c = append(c, open[:minIdx]...)
	return append(c, c[0])
}

// Reaches reports whether to is reachable from from by following depends_on edges.
func (g *Graph) Reaches(from, to string) bool {
	if from == to {
		return true
	}
	visited := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, dep := range g.DependsOn(cur) {
			if dep == to {
				return true
			}
			if !visited[dep] {
				visited[dep] = true
				stack = append(stack, dep)
			}
		}
	}
	return false
}
