package graph

import (
	"fmt"

	"github.com/fraim-ai/fraim-toolkit/internal/decision"
	"github.com/fraim-ai/fraim-toolkit/internal/errors"
)

// Effect is one node reached by a cascade.
type Effect struct {
	Node         string         `json:"node"`
	Title        string         `json:"title"`
	CurrentState decision.State `json:"current_state"`
	Reason       string         `json:"reason"`
	Depth        int            `json:"depth"`
	CrossScope   bool           `json:"cross_scope,omitempty"`
}

// Wave groups the effects found at one distance from the origin.
type Wave struct {
	Wave    int      `json:"wave"`
	Effects []Effect `json:"effects"`
}

// CascadeSummary counts a cascade's effects.
type CascadeSummary struct {
	TotalAffected int `json:"total_affected"`
	WaveCount     int `json:"wave_count"`
	Direct        int `json:"direct"`
}

// Cascade is the impact of a change to Origin, or the constraints on it when
// Direction is Reverse.
type Cascade struct {
	Origin      string         `json:"start_node"`
	OriginTitle string         `json:"start_title"`
	Direction   Direction      `json:"direction"`
	Waves       []Wave         `json:"waves"`
	Summary     CascadeSummary `json:"summary"`
}

// Cascade computes the waves of nodes reachable from origin in dir. It fails
// with NotFoundError when origin is not in the graph.
func (g *Graph) Cascade(origin string, dir Direction) (*Cascade, error) {
	start, ok := g.nodes[origin]
	if !ok {
		return nil, errors.NewNotFoundError("decision", origin)
	}

	c := &Cascade{
		Origin:      origin,
		OriginTitle: start.Title,
		Direction:   dir,
		Waves:       []Wave{},
	}

	for _, v := range g.Traverse(origin, dir) {
		d := g.nodes[v.ID]
		via := g.nodes[v.Via]

		reason := fmt.Sprintf("depends on %s", v.Via)
		if dir == Reverse {
			reason = fmt.Sprintf("%s depends on this", v.Via)
		}

		if len(c.Waves) < v.Depth {
			c.Waves = append(c.Waves, Wave{Wave: v.Depth})
		}
		w := &c.Waves[v.Depth-1]
		w.Effects = append(w.Effects, Effect{
			Node:         v.ID,
			Title:        d.Title,
			CurrentState: d.State,
			Reason:       reason,
			Depth:        v.Depth,
			CrossScope:   d.Scope != via.Scope,
		})

		c.Summary.TotalAffected++
		if v.Depth == 1 {
			c.Summary.Direct++
		}
	}
	c.Summary.WaveCount = len(c.Waves)
	return c, nil
}

// Affected returns the ids of every effect in visitation order.
func (c *Cascade) Affected() []string {
	var ids []string
	for _, w := range c.Waves {
		for _, e := range w.Effects {
			ids = append(ids, e.Node)
		}
	}
	return ids
}
