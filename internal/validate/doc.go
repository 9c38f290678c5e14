// Package validate checks decision graphs against their structural
// invariants and produces advisory lint warnings.
//
// Two kinds of checks live here. Full-graph validation ([Graph]) produces a
// [Report] with blocking errors and informational warnings. Write-time checks
// ([CheckCreate], [CheckSet]) run against a hypothetical graph that already
// contains the pending change and return StructuralErrors that must refuse
// the write. The iron rule is only enforced by [CheckSet] when a node moves
// to committed; full-graph validation merely warns about committed nodes
// whose upstream is not committed.
package validate
