// Package graph builds the in-memory dependency graph of a decision set and
// runs the traversals the engine needs: cycle detection, breadth-first
// cascades in either direction, upstream critical paths, and a deterministic
// topological order.
//
// A Graph is derived state. It is built from a fresh load on every command
// and never mutated afterwards; [Graph.With] returns a new graph for
// "what if" validation of a pending write.
package graph
