package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fraim-ai/fraim-toolkit/internal/decision"
	"github.com/fraim-ai/fraim-toolkit/internal/errors"
)

const (
	docPattern = decision.IDPrefix + "*.md"
	docPerm    = 0o644
)

// Store provides access to the decision documents of one project.
type Store struct {
	governanceDir string
	projectDir    string
}

// New creates a Store over the two scope roots.
func New(governanceDir, projectDir string) *Store {
	return &Store{governanceDir: governanceDir, projectDir: projectDir}
}

// Dir returns the root directory of scope.
func (s *Store) Dir(scope decision.Scope) string {
	if scope == decision.ScopeGovernance {
		return s.governanceDir
	}
	return s.projectDir
}

// Scopes returns both scopes, governance first.
func Scopes() []decision.Scope {
	return []decision.Scope{decision.ScopeGovernance, decision.ScopeProject}
}

// PathFor returns where a decision with id is stored in scope.
func (s *Store) PathFor(id string, scope decision.Scope) string {
	return filepath.Join(s.Dir(scope), id+".md")
}

// LoadIssue describes a document that could not be addressed by id.
type LoadIssue struct {
	Path  string
	Scope decision.Scope
	Err   error
}

// Snapshot is the full set of documents read by one Load.
type Snapshot struct {
	// Decisions are ordered governance first, then by file name.
	Decisions []*decision.Decision
	Issues    []LoadIssue
}

// Load reads every decision document from both roots. A missing root is
// treated as empty. Documents that fail to parse are reported as issues and
// left untouched on disk.
func (s *Store) Load() (*Snapshot, error) {
	snap := &Snapshot{}
	for _, scope := range Scopes() {
		paths, err := s.list(scope)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			d, err := readFile(path, scope)
			if err != nil {
				var ioErr *errors.IOError
				if errors.As(err, &ioErr) {
					return nil, err
				}
				snap.Issues = append(snap.Issues, LoadIssue{Path: path, Scope: scope, Err: err})
				continue
			}
			snap.Decisions = append(snap.Decisions, d)
		}
	}
	return snap, nil
}

func (s *Store) list(scope decision.Scope) ([]string, error) {
	dir := s.Dir(scope)
	if dir == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	paths, err := filepath.Glob(filepath.Join(dir, docPattern))
	if err != nil {
		return nil, errors.NewIOError("glob", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func readFile(path string, scope decision.Scope) (*decision.Decision, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError("read", path, err)
	}
	d, err := decision.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("store: %s: %w", filepath.Base(path), err)
	}
	d.Path = path
	d.Scope = scope
	return d, nil
}

// Find returns the path and scope of the document named id, searching the
// governance root first.
func (s *Store) Find(id string) (string, decision.Scope, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return "", "", errors.NewNotFoundError("decision", id)
	}
	for _, scope := range Scopes() {
		if s.Dir(scope) == "" {
			continue
		}
		path := s.PathFor(id, scope)
		if _, err := os.Stat(path); err == nil {
			return path, scope, nil
		}
	}
	return "", "", errors.NewNotFoundError("decision", id)
}

// Read loads a single decision by id.
func (s *Store) Read(id string) (*decision.Decision, error) {
	path, scope, err := s.Find(id)
	if err != nil {
		return nil, err
	}
	return readFile(path, scope)
}

// ReadRaw returns the document text of id exactly as stored.
func (s *Store) ReadRaw(id string) (string, error) {
	path, _, err := s.Find(id)
	if err != nil {
		return "", err
	}
	return ReadRawAt(path)
}

// ReadRawAt returns the document text at path exactly as stored.
func ReadRawAt(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewNotFoundError("document", path)
		}
		return "", errors.NewIOError("read", path, err)
	}
	return string(data), nil
}

// Write replaces the document of d atomically. d.Path is used when set,
// otherwise the path is derived from d.Scope.
func (s *Store) Write(d *decision.Decision) error {
	path := d.Path
	if path == "" {
		path = s.PathFor(d.ID, d.Scope)
	}
	data, err := encode(d)
	if err != nil {
		return err
	}
	if err := WriteFileAtomic(path, data, docPerm); err != nil {
		return err
	}
	d.Path = path
	return nil
}

// Create writes a new document for d. It fails with ConflictError when a
// document with the same id exists in either root.
func (s *Store) Create(d *decision.Decision) error {
	if path, scope, err := s.Find(d.ID); err == nil {
		return errors.NewConflictError("decision", d.ID).
			WithReason(fmt.Sprintf("already exists in %s (%s)", scope, path))
	}

	data, err := encode(d)
	if err != nil {
		return err
	}
	path := s.PathFor(d.ID, d.Scope)
	created, err := CreateFileExclusive(path, data, docPerm)
	if err != nil {
		return err
	}
	if !created {
		return errors.NewConflictError("decision", d.ID).WithReason("created concurrently")
	}
	d.Path = path
	return nil
}

// Substitute replaces oldText with newText in the body of doc. The frontmatter
// bytes are copied unchanged. oldText must occur exactly once in the body.
func Substitute(id, doc, oldText, newText string) (string, error) {
	n, err := decision.HeaderLen(doc)
	if err != nil {
		return "", fmt.Errorf("store: %s: %w", id, err)
	}
	header, body := doc[:n], doc[n:]

	if oldText == "" {
		return "", errors.NewNotFoundError("text", id).WithDetail("old text is empty")
	}
	switch count := strings.Count(body, oldText); count {
	case 0:
		return "", errors.NewNotFoundError("text", id).WithDetail("old text not found in body")
	case 1:
	default:
		return "", errors.NewNotFoundError("text", id).
			WithDetail(fmt.Sprintf("old text matches %d locations", count))
	}
	return header + strings.Replace(body, oldText, newText, 1), nil
}

// ReplaceText substitutes oldText with newText in the body of id and writes
// the result. It returns the document before and after the edit.
func (s *Store) ReplaceText(id, oldText, newText string) (before, after string, err error) {
	path, _, err := s.Find(id)
	if err != nil {
		return "", "", err
	}
	return ReplaceTextAt(path, id, oldText, newText)
}

// ReplaceTextAt is ReplaceText for the document stored at path.
func ReplaceTextAt(path, id, oldText, newText string) (before, after string, err error) {
	before, err = ReadRawAt(path)
	if err != nil {
		return "", "", err
	}
	after, err = Substitute(id, before, oldText, newText)
	if err != nil {
		return "", "", err
	}
	if err := WriteFileAtomic(path, []byte(after), docPerm); err != nil {
		return "", "", err
	}
	return before, after, nil
}

// encode marshals d and parses the result back, so a value that would not
// survive the frontmatter round trip never reaches the disk.
func encode(d *decision.Decision) ([]byte, error) {
	data := decision.Marshal(d)
	back, err := decision.Parse(data)
	if err != nil {
		return nil, errors.NewStructuralError(errors.CodeInvalidField,
			fmt.Sprintf("document would not parse after writing: %v", err)).WithNode(d.ID)
	}
	if back.ID != d.ID || back.Title != strings.TrimSpace(d.Title) {
		return nil, errors.NewStructuralError(errors.CodeInvalidField,
			"title does not survive the frontmatter round trip").WithNode(d.ID).WithField("title")
	}
	return data, nil
}
