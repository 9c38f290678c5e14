package decision

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fraim-ai/fraim-toolkit/internal/errors"
)

const delimiter = "---"

// ScaffoldBody is the body of a freshly created decision: the required sections, empty.
const ScaffoldBody = "\n\n## Decision\n\n\n\n## Reasoning\n\n\n\n## Assumptions\n\n\n\n## Tradeoffs\n\n"

// RequiredSections must appear as level-two headings in every decision body.
var RequiredSections = []string{"Decision", "Reasoning", "Assumptions", "Tradeoffs"}

// BodySections are the headings recognized for search and targeted edits.
var BodySections = []string{"Decision", "Reasoning", "Assumptions", "Tradeoffs", "Detail"}

var nextHeading = regexp.MustCompile(`(?m)^## `)

var titleNeedsQuoting = regexp.MustCompile("[:#\\[\"']|^[{>|*&!%@`]|^[-?] |^(?:~|null|Null|NULL)$")

// Split separates a document into its frontmatter block and body.
// The body starts immediately after the closing delimiter, so the newline
// ending the delimiter line belongs to the body.
func Split(text string) (header, body string, err error) {
	if !strings.HasPrefix(text, delimiter) {
		return "", "", fmt.Errorf("%w: no frontmatter", errors.ErrMalformedDocument)
	}
	end := strings.Index(text[len(delimiter):], "\n"+delimiter)
	if end == -1 {
		return "", "", fmt.Errorf("%w: unterminated frontmatter", errors.ErrMalformedDocument)
	}
	end += len(delimiter)
	header = strings.TrimPrefix(text[len(delimiter):end], "\n")
	body = text[end+len(delimiter)+1:]
	return header, body, nil
}

// HeaderLen returns the byte length of the frontmatter including both delimiters.
// Bytes before this offset are never touched by body edits.
func HeaderLen(text string) (int, error) {
	_, body, err := Split(text)
	if err != nil {
		return 0, err
	}
	return len(text) - len(body), nil
}

// Parse decodes a decision document. It fails only when the document cannot
// be addressed at all (no frontmatter, broken YAML, or no id); field-level
// problems are collected on the returned Decision.
func Parse(data []byte) (*Decision, error) {
	header, body, err := Split(string(data))
	if err != nil {
		return nil, err
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(header), &root); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrMalformedDocument, err)
	}

	fields := map[string]*yaml.Node{}
	if len(root.Content) > 0 {
		doc := root.Content[0]
		if doc.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: frontmatter is not a mapping", errors.ErrMalformedDocument)
		}
		for i := 0; i+1 < len(doc.Content); i += 2 {
			fields[doc.Content[i].Value] = doc.Content[i+1]
		}
	}

	d := &Decision{Body: body, DependsOn: []string{}}
	d.ID = scalar(fields["id"])
	if d.ID == "" {
		return nil, errors.NewStructuralError(errors.CodeMissingField, "missing id").WithField("id")
	}
	d.Title = scalar(fields["title"])
	d.Date = scalar(fields["date"])

	if raw := scalar(fields["level"]); raw == "" {
		d.addProblem(errors.CodeMissingField, "level", "missing level")
	} else if lvl, err := ParseLevel(raw); err != nil {
		d.addProblem(errors.CodeInvalidField, "level", fmt.Sprintf("invalid level '%s' (must be 1-4)", raw))
	} else {
		d.Level = lvl
	}

	if raw := scalar(fields["state"]); raw == "" {
		d.addProblem(errors.CodeMissingField, "state", "missing state")
	} else if st, err := ParseState(raw); err != nil {
		d.State = State(raw)
		d.addProblem(errors.CodeInvalidField, "state",
			fmt.Sprintf("invalid state '%s' (must be suggested/committed/superseded)", raw))
	} else {
		d.State = st
	}

	if raw := scalar(fields["stakes"]); raw != "" {
		d.Stakes = Stakes(raw)
		if !d.Stakes.Valid() {
			d.addProblem(errors.CodeInvalidField, "stakes",
				fmt.Sprintf("invalid stakes '%s' (must be high/medium/low)", raw))
		}
	}

	deps, err := idList(fields["depends_on"])
	if err != nil {
		d.addProblem(errors.CodeInvalidField, "depends_on", err.Error())
	}
	d.DependsOn = deps

	return d, nil
}

func (d *Decision) addProblem(code errors.Code, field, msg string) {
	d.Problems = append(d.Problems, errors.NewStructuralError(code, msg).WithNode(d.ID).WithField(field))
}

func scalar(n *yaml.Node) string {
	if n == nil || n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		return ""
	}
	return strings.TrimSpace(n.Value)
}

// idList reads depends_on as a block or flow sequence. Items may be bare ids
// or mappings carrying an id key.
func idList(n *yaml.Node) ([]string, error) {
	ids := []string{}
	if n == nil {
		return ids, nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return ParseIDList(scalar(n)), nil
	case yaml.SequenceNode:
		for _, item := range n.Content {
			switch item.Kind {
			case yaml.ScalarNode:
				if v := scalar(item); v != "" {
					ids = append(ids, v)
				}
			case yaml.MappingNode:
				for i := 0; i+1 < len(item.Content); i += 2 {
					if item.Content[i].Value == "id" {
						if v := scalar(item.Content[i+1]); v != "" {
							ids = append(ids, v)
						}
					}
				}
			default:
				return ids, fmt.Errorf("depends_on entries must be ids")
			}
		}
		return ids, nil
	}
	return ids, fmt.Errorf("depends_on must be a list")
}

// Marshal renders d with fields in fixed order followed by the body, verbatim.
// A missing date is filled with today's date.
func Marshal(d *Decision) []byte {
	var sb strings.Builder
	sb.WriteString(delimiter + "\n")
	fmt.Fprintf(&sb, "id: %s\n", d.ID)
	sb.WriteString("title: " + quoteTitle(d.Title) + "\n")

	date := d.Date
	if date == "" {
		date = Today()
	}
	fmt.Fprintf(&sb, "date: %s\n", date)
	fmt.Fprintf(&sb, "level: %d\n", d.Level)
	fmt.Fprintf(&sb, "state: %s\n", d.State)
	if d.Stakes != "" {
		fmt.Fprintf(&sb, "stakes: %s\n", d.Stakes)
	}
	if len(d.DependsOn) == 0 {
		sb.WriteString("depends_on: []\n")
	} else {
		sb.WriteString("depends_on:\n")
		for _, dep := range d.DependsOn {
			fmt.Fprintf(&sb, "  - %s\n", dep)
		}
	}
	sb.WriteString(delimiter)

	if d.Body != "" && !strings.HasPrefix(d.Body, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString(d.Body)
	return []byte(sb.String())
}

func quoteTitle(title string) string {
	if !titleNeedsQuoting.MatchString(title) && !strings.Contains(title, `\`) {
		return title
	}
	escaped := strings.ReplaceAll(title, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}

// Today returns the current date in frontmatter form.
var Today = func() string {
	return time.Now().Format(time.DateOnly)
}

// Section returns the text under "## name" up to the next level-two heading.
func Section(body, name string) (string, bool) {
	re := regexp.MustCompile(`(?m)^## ` + regexp.QuoteMeta(name) + `[ \t]*$`)
	loc := re.FindStringIndex(body)
	if loc == nil {
		return "", false
	}
	rest := body[loc[1]:]
	next := nextHeading.FindStringIndex(rest)
	if next == nil {
		return rest, true
	}
	return rest[:next[0]], true
}

// MissingSections returns the required headings absent from body.
func MissingSections(body string) []string {
	var missing []string
	for _, name := range RequiredSections {
		if _, ok := Section(body, name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
