// Package health derives the summary documents of a project: HEALTH.md
// (counts, per-level certainty, flagged items) and one INDEX.md per scope
// directory. Both are regenerated from the graph and never edited by hand;
// a hand edit to HEALTH.md outside its Manual Flags section is detected and
// reported, then overwritten.
//
// [Check] is the fast read-only narrowing a caller uses before deciding
// whether to consult the graph at all.
package health
