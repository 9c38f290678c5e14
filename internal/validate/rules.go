package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"

	"github.com/fraim-ai/fraim-toolkit/internal/config"
)

// Rules holds the project-specific lint configuration in compiled form.
type Rules struct {
	MaxDependencies int

	term       *regexp.Regexp
	termLabel  string
	exemptions []*regexp.Regexp
	exemptIDs  map[string]bool
	artifacts  []artifactMatcher
}

type artifactMatcher struct {
	label   string
	pattern *regexp.Regexp
	glob    glob.Glob
}

// match reports whether body references the artifact. Globs are matched
// against each whitespace separated token with surrounding markup trimmed.
func (m artifactMatcher) match(body string) bool {
	if m.pattern != nil {
		return m.pattern.MatchString(body)
	}
	for _, tok := range strings.Fields(body) {
		if m.glob.Match(strings.Trim(tok, "`'\"()[]<>,;:.")) {
			return true
		}
	}
	return false
}

// DefaultRules returns rules with no project lint configured.
func DefaultRules() *Rules {
	return &Rules{MaxDependencies: config.Default().Validation.MaxDependencies, exemptIDs: map[string]bool{}}
}

// NewRules compiles the lint configuration of cfg.
func NewRules(cfg *config.Config) (*Rules, error) {
	r := &Rules{
		MaxDependencies: cfg.Validation.MaxDependencies,
		exemptIDs:       make(map[string]bool),
	}

	if term := strings.TrimSpace(cfg.Terminology.FlaggedTerm); term != "" {
		r.term = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
		r.termLabel = term
		for _, pat := range cfg.Terminology.Exemptions {
			re, err := regexp.Compile(pat)
			if err != nil {
				return nil, fmt.Errorf("validate: terminology exemption %q: %w", pat, err)
			}
			r.exemptions = append(r.exemptions, re)
		}
		for _, id := range cfg.Terminology.ExemptIDs {
			r.exemptIDs[id] = true
		}
	}

	for _, rule := range cfg.DeletedArtifacts {
		m := artifactMatcher{label: rule.Label}
		switch {
		case rule.Pattern != "":
			re, err := regexp.Compile(rule.Pattern)
			if err != nil {
				return nil, fmt.Errorf("validate: deleted artifact pattern %q: %w", rule.Pattern, err)
			}
			m.pattern = re
			if m.label == "" {
				m.label = rule.Pattern
			}
		case rule.Glob != "":
			g, err := glob.Compile(rule.Glob, '/')
			if err != nil {
				return nil, fmt.Errorf("validate: deleted artifact glob %q: %w", rule.Glob, err)
			}
			m.glob = g
			if m.label == "" {
				m.label = rule.Glob
			}
		default:
			continue
		}
		r.artifacts = append(r.artifacts, m)
	}
	return r, nil
}

// termLines counts body lines using the flagged term without an exemption.
func (r *Rules) termLines(body string) int {
	count := 0
	for _, line := range strings.Split(body, "\n") {
		if !r.term.MatchString(line) {
			continue
		}
		exempt := false
		for _, re := range r.exemptions {
			if re.MatchString(line) {
				exempt = true
				break
			}
		}
		if !exempt {
			count++
		}
	}
	return count
}
