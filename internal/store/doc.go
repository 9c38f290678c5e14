// Package store reads and writes decision documents on disk.
//
// Decisions live one per file, named after their id, in two scope roots:
// the governance directory (constitution/) and the project directory (dna/).
// The store never caches; every [Store.Load] reads both roots from scratch.
//
// Writes are whole-file replacements through a temporary file and rename,
// so a concurrent reader sees either the old or the new document, never a
// partial one. [Store.Create] links the temporary file into place instead of
// renaming it, which fails when the id already exists.
package store
