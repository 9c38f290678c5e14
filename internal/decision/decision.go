package decision

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/fraim-ai/fraim-toolkit/internal/errors"
)

// Level is a decision's position in the hierarchy. Lower levels are more fundamental.
type Level int

const (
	LevelIdentity  Level = 1
	LevelDirection Level = 2
	LevelStrategy  Level = 3
	LevelTactics   Level = 4
)

// Levels lists every valid level in ascending order.
var Levels = []Level{LevelIdentity, LevelDirection, LevelStrategy, LevelTactics}

var levelNames = map[Level]string{
	LevelIdentity:  "Identity",
	LevelDirection: "Direction",
	LevelStrategy:  "Strategy",
	LevelTactics:   "Tactics",
}

// Valid reports whether l is one of the four hierarchy levels.
func (l Level) Valid() bool {
	return l >= LevelIdentity && l <= LevelTactics
}

// Name returns the human name of the level, or "Unknown".
func (l Level) Name() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "Unknown"
}

// ParseLevel converts s to a Level, rejecting anything outside 1-4.
func ParseLevel(s string) (Level, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !Level(n).Valid() {
		return 0, errors.NewStructuralError(errors.CodeInvalidField,
			fmt.Sprintf("invalid level '%s' (must be 1-4)", s)).WithField("level")
	}
	return Level(n), nil
}

// State is the lifecycle state of a decision.
type State string

const (
	StateSuggested  State = "suggested"
	StateCommitted  State = "committed"
	StateSuperseded State = "superseded"
)

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	switch s {
	case StateSuggested, StateCommitted, StateSuperseded:
		return true
	}
	return false
}

// ParseState converts s to a State.
func ParseState(s string) (State, error) {
	st := State(strings.TrimSpace(s))
	if !st.Valid() {
		return "", errors.NewStructuralError(errors.CodeInvalidField,
			fmt.Sprintf("invalid state '%s' (must be suggested/committed/superseded)", s)).WithField("state")
	}
	return st, nil
}

// CanTransition reports whether moving from one state to another is legal.
// Staying in the same state is always allowed.
func CanTransition(from, to State) bool {
	if from == to {
		return true
	}
	switch from {
	case StateSuggested:
		return to == StateCommitted || to == StateSuperseded
	case StateCommitted:
		return to == StateSuperseded
	}
	return false
}

// Stakes is an optional advisory weight. The empty value means unset.
type Stakes string

const (
	StakesHigh   Stakes = "high"
	StakesMedium Stakes = "medium"
	StakesLow    Stakes = "low"
)

// Valid reports whether s is unset or one of the three stakes values.
func (s Stakes) Valid() bool {
	switch s {
	case "", StakesHigh, StakesMedium, StakesLow:
		return true
	}
	return false
}

// ParseStakes converts s to Stakes. The empty string is not accepted here;
// callers that allow clearing stakes handle it before parsing.
func ParseStakes(s string) (Stakes, error) {
	st := Stakes(strings.TrimSpace(s))
	if st == "" || !st.Valid() {
		return "", errors.NewStructuralError(errors.CodeInvalidField,
			fmt.Sprintf("invalid stakes '%s' (must be high/medium/low)", s)).WithField("stakes")
	}
	return st, nil
}

// Scope partitions decisions. Governance decisions are always upstream of project decisions.
type Scope string

const (
	ScopeGovernance Scope = "governance"
	ScopeProject    Scope = "project"
)

// IDPrefix starts every decision id.
const IDPrefix = "DEC-"

var newIDPattern = regexp.MustCompile(`^DEC-\d{3,}$`)

// ValidNewID reports whether id is acceptable for a newly created decision.
func ValidNewID(id string) bool {
	return newIDPattern.MatchString(id)
}

// Decision is a single node of the decision graph.
type Decision struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Date      string   `json:"date,omitempty"`
	Level     Level    `json:"level"`
	State     State    `json:"state"`
	Stakes    Stakes   `json:"stakes,omitempty"`
	DependsOn []string `json:"depends_on"`
	Scope     Scope    `json:"scope"`

	// Path is the file the decision was loaded from.
	Path string `json:"-"`
	// Body is everything after the closing frontmatter delimiter, byte for byte.
	Body string `json:"-"`
	// Problems holds field-level parse failures. A decision with problems
	// is still addressable by id; validation reports them as errors.
	Problems []*errors.StructuralError `json:"-"`
}

// Clone returns a deep copy of d.
func (d *Decision) Clone() *Decision {
	c := *d
	c.DependsOn = slices.Clone(d.DependsOn)
	c.Problems = slices.Clone(d.Problems)
	return &c
}

// DependsOnID reports whether id is among d's dependencies.
func (d *Decision) DependsOnID(id string) bool {
	return slices.Contains(d.DependsOn, id)
}

// ParseIDList splits a comma separated id list. "[]" and "" yield an empty list.
func ParseIDList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" {
		return []string{}
	}
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			ids = append(ids, p)
		}
	}
	if ids == nil {
		return []string{}
	}
	return ids
}

// FormatIDList renders ids for display, "[]" when empty.
func FormatIDList(ids []string) string {
	if len(ids) == 0 {
		return "[]"
	}
	return strings.Join(ids, ", ")
}
