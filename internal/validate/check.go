package validate

import (
	"fmt"
	"unicode"

	"github.com/fraim-ai/fraim-toolkit/internal/decision"
	"github.com/fraim-ai/fraim-toolkit/internal/errors"
	"github.com/fraim-ai/fraim-toolkit/internal/graph"
)

// CheckCreate validates a new decision d against the current graph g.
// Existence of the id is a ConflictError and is checked by the caller.
func CheckCreate(g *graph.Graph, d *decision.Decision) []*errors.StructuralError {
	var errs []*errors.StructuralError
	if !decision.ValidNewID(d.ID) {
		errs = append(errs, errors.NewStructuralError(errors.CodeInvalidID,
			fmt.Sprintf("invalid id '%s' (must be %sNNN)", d.ID, decision.IDPrefix)).WithNode(d.ID).WithField("id"))
	}
	if err := checkLevel(d); err != nil {
		errs = append(errs, err)
	}
	if d.State != decision.StateSuggested {
		errs = append(errs, errors.NewStructuralError(errors.CodeIllegalTransition,
			fmt.Sprintf("new decisions start as suggested, not '%s'", d.State)).WithNode(d.ID).WithField("state"))
	}
	if err := checkStakes(d); err != nil {
		errs = append(errs, err)
	}
	if err := checkTitle(d); err != nil {
		errs = append(errs, err)
	}
	return append(errs, checkEdges(g.With(d), d)...)
}

// CheckSet validates changing field of prev to produce next. g is the graph
// before the change. Only the changed field is checked, so problems elsewhere
// in the document never block an unrelated fix.
func CheckSet(g *graph.Graph, prev, next *decision.Decision, field string) []*errors.StructuralError {
	if prev.State == decision.StateSuperseded && !(field == "state" && next.State == decision.StateSuperseded) {
		return []*errors.StructuralError{
			errors.NewStructuralError(errors.CodeSuperseded,
				fmt.Sprintf("is superseded; %s cannot be changed", field)).WithNode(prev.ID).WithField(field),
		}
	}

	switch field {
	case "state":
		return CheckTransition(g, prev, next.State)
	case "depends_on":
		return checkEdges(g.With(next), next)
	case "level":
		if err := checkLevel(next); err != nil {
			return []*errors.StructuralError{err}
		}
		return checkLevelAgainstNeighbors(g.With(next), next)
	case "stakes":
		if err := checkStakes(next); err != nil {
			return []*errors.StructuralError{err}
		}
	case "title":
		if next.Title == "" {
			return []*errors.StructuralError{errors.NewStructuralError(errors.CodeInvalidField, "title cannot be empty").
				WithNode(prev.ID).WithField("title")}
		}
		if err := checkTitle(next); err != nil {
			return []*errors.StructuralError{err}
		}
	default:
		return []*errors.StructuralError{errors.NewStructuralError(errors.CodeInvalidField,
			fmt.Sprintf("unknown field '%s' (must be state/depends_on/level/stakes/title)", field)).WithNode(prev.ID).WithField(field)}
	}
	return nil
}

// CheckTransition checks moving d to state to, including the iron rule: a
// node may become committed only when every dependency is committed.
func CheckTransition(g *graph.Graph, d *decision.Decision, to decision.State) []*errors.StructuralError {
	if !to.Valid() {
		return []*errors.StructuralError{errors.NewStructuralError(errors.CodeInvalidField,
			fmt.Sprintf("invalid state '%s' (must be suggested/committed/superseded)", to)).WithNode(d.ID).WithField("state")}
	}
	if d.State.Valid() && !decision.CanTransition(d.State, to) {
		return []*errors.StructuralError{errors.NewStructuralError(errors.CodeIllegalTransition,
			fmt.Sprintf("illegal transition %s → %s", d.State, to)).WithNode(d.ID).WithField("state")}
	}
	if to != decision.StateCommitted || d.State == decision.StateCommitted {
		return nil
	}

	var errs []*errors.StructuralError
	for _, depID := range g.DependsOn(d.ID) {
		dep, _ := g.Get(depID)
		if dep.State != decision.StateCommitted {
			errs = append(errs, errors.NewStructuralError(errors.CodeIronRule,
				fmt.Sprintf("cannot commit, upstream %s is '%s'", depID, dep.State)).
				WithNode(d.ID).WithField("state").WithRelated(depID))
		}
	}
	for _, dep := range g.Dangling(d.ID) {
		errs = append(errs, errors.NewStructuralError(errors.CodeIronRule,
			fmt.Sprintf("cannot commit, upstream %s does not exist", dep)).
			WithNode(d.ID).WithField("state").WithRelated(dep))
	}
	return errs
}

func checkLevel(d *decision.Decision) *errors.StructuralError {
	if d.Level.Valid() {
		return nil
	}
	return errors.NewStructuralError(errors.CodeInvalidField,
		fmt.Sprintf("invalid level '%d' (must be 1-4)", d.Level)).WithNode(d.ID).WithField("level")
}

func checkStakes(d *decision.Decision) *errors.StructuralError {
	if d.Stakes.Valid() {
		return nil
	}
	return errors.NewStructuralError(errors.CodeInvalidField,
		fmt.Sprintf("invalid stakes '%s' (must be high/medium/low)", d.Stakes)).WithNode(d.ID).WithField("stakes")
}

// checkTitle rejects control characters; a newline would end the
// frontmatter value and leave the document unparseable.
func checkTitle(d *decision.Decision) *errors.StructuralError {
	for _, r := range d.Title {
		if unicode.IsControl(r) {
			return errors.NewStructuralError(errors.CodeInvalidField,
				fmt.Sprintf("title contains control character %U", r)).WithNode(d.ID).WithField("title")
		}
	}
	return nil
}

// checkEdges validates the depends_on list of d. g must already contain d.
func checkEdges(g *graph.Graph, d *decision.Decision) []*errors.StructuralError {
	var errs []*errors.StructuralError
	for _, dep := range g.Dangling(d.ID) {
		errs = append(errs, errors.NewStructuralError(errors.CodeDanglingRef,
			fmt.Sprintf("depends_on references non-existent %s", dep)).WithNode(d.ID).WithField("depends_on").WithRelated(dep))
	}

	for _, depID := range g.DependsOn(d.ID) {
		if depID == d.ID {
			errs = append(errs, errors.NewStructuralError(errors.CodeCycle,
				fmt.Sprintf("Cycle detected: %s → %s (self-dependency)", d.ID, d.ID)).
				WithNode(d.ID).WithField("depends_on").WithRelated(d.ID))
			continue
		}
		dep, _ := g.Get(depID)
		if err := levelOrder(d, dep); err != nil {
			errs = append(errs, err)
		}
		if err := scopeOrder(d, dep); err != nil {
			errs = append(errs, err)
		}
		if g.Reaches(depID, d.ID) {
			errs = append(errs, errors.NewStructuralError(errors.CodeCycle,
				fmt.Sprintf("this change would create a cycle through %s", depID)).
				WithNode(d.ID).WithField("depends_on").WithRelated(depID))
		}
	}
	return errs
}

// checkLevelAgainstNeighbors verifies level ordering on every edge touching d
// after its level changed. g must already contain d.
func checkLevelAgainstNeighbors(g *graph.Graph, d *decision.Decision) []*errors.StructuralError {
	var errs []*errors.StructuralError
	for _, depID := range g.DependsOn(d.ID) {
		dep, _ := g.Get(depID)
		if err := levelOrder(d, dep); err != nil {
			errs = append(errs, err)
		}
	}
	for _, childID := range g.Dependents(d.ID) {
		child, _ := g.Get(childID)
		if err := levelOrder(child, d); err != nil {
			errs = append(errs, err.WithField("level"))
		}
	}
	return errs
}
