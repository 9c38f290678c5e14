package frontier

import (
	"github.com/fraim-ai/fraim-toolkit/internal/decision"
	"github.com/fraim-ai/fraim-toolkit/internal/graph"
)

// LevelProgress is the mechanical state count of one level.
type LevelProgress struct {
	Level      decision.Level `json:"level"`
	Name       string         `json:"name"`
	Total      int            `json:"total"`
	Committed  int            `json:"committed"`
	Suggested  int            `json:"suggested"`
	Superseded int            `json:"superseded"`
	// Percent is committed over non-superseded decisions, 0 when there are none.
	Percent int `json:"percent"`
}

// Progress reports per-level counts and the overall total.
type Progress struct {
	Levels    []LevelProgress `json:"levels"`
	Total     int             `json:"total"`
	Committed int             `json:"committed"`
	Percent   int             `json:"percent"`
}

// ComputeProgress counts decisions by level and state.
func ComputeProgress(g *graph.Graph) *Progress {
	p := &Progress{}
	active := 0
	for _, lvl := range decision.Levels {
		lp := LevelProgress{Level: lvl, Name: lvl.Name()}
		for _, d := range g.Nodes() {
			if d.Level != lvl {
				continue
			}
			lp.Total++
			switch d.State {
			case decision.StateCommitted:
				lp.Committed++
			case decision.StateSuggested:
				lp.Suggested++
			case decision.StateSuperseded:
				lp.Superseded++
			}
		}
		lp.Percent = percent(lp.Committed, lp.Total-lp.Superseded)
		p.Levels = append(p.Levels, lp)
		p.Total += lp.Total
		p.Committed += lp.Committed
		active += lp.Total - lp.Superseded
	}
	p.Percent = percent(p.Committed, active)
	return p
}

func percent(n, of int) int {
	if of <= 0 {
		return 0
	}
	return n * 100 / of
}
