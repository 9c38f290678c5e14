// Package search finds decisions by case-insensitive substring match over
// titles and bodies. Multiple terms are OR-matched.
package search

import (
	"strings"
	"unicode"

	"github.com/fraim-ai/fraim-toolkit/internal/decision"
	"github.com/fraim-ai/fraim-toolkit/internal/graph"
	"github.com/fraim-ai/fraim-toolkit/internal/util"
)

// SnippetRadius is how many characters of context surround a hit.
const SnippetRadius = 40

// Result is one matching decision.
type Result struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Level           decision.Level `json:"level"`
	State           decision.State `json:"state"`
	Scope           decision.Scope `json:"scope"`
	MatchedSections []string       `json:"matched_sections"`
	Snippet         string         `json:"snippet"`
}

// Results is the outcome of one query.
type Results struct {
	Query   []string `json:"query"`
	Count   int      `json:"count"`
	Results []Result `json:"results"`
}

// Normalize lowercases terms and drops blanks.
func Normalize(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Search returns every decision of g matching any term, in id order.
// No terms or no matches yields an empty result, never an error.
func Search(g *graph.Graph, terms []string) *Results {
	terms = Normalize(terms)
	res := &Results{Query: terms, Results: []Result{}}
	if len(terms) == 0 {
		return res
	}

	for _, d := range g.Nodes() {
		title := strings.ToLower(d.Title)
		body := strings.ToLower(d.Body)
		if !containsAny(title, terms) && !containsAny(body, terms) {
			continue
		}

		sections := []string{}
		if containsAny(title, terms) {
			sections = append(sections, "title")
		}
		for _, name := range decision.BodySections {
			text, ok := decision.Section(d.Body, name)
			if ok && containsAny(strings.ToLower(text), terms) {
				sections = append(sections, name)
			}
		}

		res.Results = append(res.Results, Result{
			ID:              d.ID,
			Title:           d.Title,
			Level:           d.Level,
			State:           d.State,
			Scope:           d.Scope,
			MatchedSections: sections,
			Snippet:         snippet(d, terms),
		})
	}
	res.Count = len(res.Results)
	return res
}

func containsAny(text string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// snippet returns the context around the earliest body hit, or the title
// when only the title matched. Whitespace runs collapse to single spaces.
func snippet(d *decision.Decision, terms []string) string {
	body := util.CollapseSpace(d.Body)
	lower, offsets := foldWithOffsets(body)

	at, end := -1, 0
	for _, t := range terms {
		if i := strings.Index(lower, t); i >= 0 && (at == -1 || offsets[i] < at) {
			at, end = offsets[i], offsets[i+len(t)]
		}
	}
	if at == -1 {
		return util.Truncate(d.Title, 2*SnippetRadius)
	}

	start := max(at-SnippetRadius, 0)
	end = min(end+SnippetRadius, len(body))
	// Keep cuts on rune boundaries.
	for start > 0 && !startsRune(body[start]) {
		start--
	}
	for end < len(body) && !startsRune(body[end]) {
		end++
	}

	out := body[start:end]
	if start > 0 {
		out = "..." + out
	}
	if end < len(body) {
		out += "..."
	}
	return out
}

// foldWithOffsets lowercases s rune by rune. offsets[i] is the byte offset in
// s of the rune that produced byte i of the result; offsets[len(result)] is
// len(s). Lowercasing can change a rune's encoded length, so offsets into
// the result are not offsets into s.
func foldWithOffsets(s string) (string, []int) {
	var sb strings.Builder
	sb.Grow(len(s))
	offsets := make([]int, 0, len(s)+1)
	for i, r := range s {
		n := sb.Len()
		sb.WriteRune(unicode.ToLower(r))
		for range sb.Len() - n {
			offsets = append(offsets, i)
		}
	}
	offsets = append(offsets, len(s))
	return sb.String(), offsets
}

func startsRune(b byte) bool { return b&0xC0 != 0x80 }
