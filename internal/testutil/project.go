// Package testutil provides fixtures for dna tests: temporary projects with
// decision documents, and git-backed projects for history tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fraim-ai/fraim-toolkit/internal/decision"
)

// Project is a temporary dna project using the default directory layout.
type Project struct {
	Root string
	t    *testing.T
}

// NewProject creates an empty project under t.TempDir(). Both scope roots
// and the state directory exist.
func NewProject(t *testing.T) *Project {
	t.Helper()

	p := &Project{Root: t.TempDir(), t: t}
	for _, dir := range []string{p.GovernanceDir(), p.ProjectDir(), p.StateDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}
	return p
}

// GovernanceDir returns the governance-scope root.
func (p *Project) GovernanceDir() string { return filepath.Join(p.Root, "constitution") }

// ProjectDir returns the project-scope root.
func (p *Project) ProjectDir() string { return filepath.Join(p.Root, "dna") }

// StateDir returns the engine state directory.
func (p *Project) StateDir() string { return filepath.Join(p.Root, ".dna") }

// Dir returns the root for scope.
func (p *Project) Dir(scope decision.Scope) string {
	if scope == decision.ScopeGovernance {
		return p.GovernanceDir()
	}
	return p.ProjectDir()
}

// Add writes d under its scope root and returns the file path.
// An empty scope means project.
func (p *Project) Add(d *decision.Decision) string {
	p.t.Helper()

	if d.Scope == "" {
		d.Scope = decision.ScopeProject
	}
	path := filepath.Join(p.Dir(d.Scope), d.ID+".md")
	p.WriteFile(path, string(decision.Marshal(d)))
	d.Path = path
	return path
}

// AddAll writes every decision.
func (p *Project) AddAll(ds ...*decision.Decision) {
	p.t.Helper()
	for _, d := range ds {
		p.Add(d)
	}
}

// WriteConfig writes the project config file.
func (p *Project) WriteConfig(jsonText string) string {
	p.t.Helper()
	path := filepath.Join(p.StateDir(), "config.json")
	p.WriteFile(path, jsonText)
	return path
}

// WriteFile writes content to path, creating parent directories.
// Relative paths are resolved against the project root.
func (p *Project) WriteFile(path, content string) {
	p.t.Helper()

	if !filepath.IsAbs(path) {
		path = filepath.Join(p.Root, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		p.t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		p.t.Fatalf("failed to write %s: %v", path, err)
	}
}

// ReadFile returns the content of path, failing the test if it cannot be read.
func (p *Project) ReadFile(path string) string {
	p.t.Helper()

	if !filepath.IsAbs(path) {
		path = filepath.Join(p.Root, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		p.t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// Decision returns a well-formed decision with the scaffold body, dated
// 2026-01-15, titled after its id.
func Decision(id string, level decision.Level, state decision.State, deps ...string) *decision.Decision {
	if deps == nil {
		deps = []string{}
	}
	return &decision.Decision{
		ID:        id,
		Title:     "Title of " + id,
		Date:      "2026-01-15",
		Level:     level,
		State:     state,
		DependsOn: deps,
		Scope:     decision.ScopeProject,
		Body:      decision.ScaffoldBody,
	}
}

// Governance marks d as governance-scope and returns it.
func Governance(d *decision.Decision) *decision.Decision {
	d.Scope = decision.ScopeGovernance
	return d
}
