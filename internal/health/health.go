package health

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/fraim-ai/fraim-toolkit/internal/decision"
	"github.com/fraim-ai/fraim-toolkit/internal/errors"
	"github.com/fraim-ai/fraim-toolkit/internal/graph"
	"github.com/fraim-ai/fraim-toolkit/internal/history"
	"github.com/fraim-ai/fraim-toolkit/internal/store"
	"github.com/fraim-ai/fraim-toolkit/internal/validate"
)

// DefaultThinThreshold is the committed ratio below which a level is thin.
const DefaultThinThreshold = 0.5

const manualFlagsHeading = "Manual Flags"

var digestLine = regexp.MustCompile(`(?m)^<!-- dna:digest sha256=([0-9a-f]{64}) -->\n?`)

// LevelCertainty is the committed share of one level, superseded excluded.
type LevelCertainty struct {
	Level     decision.Level `json:"level"`
	Name      string         `json:"name"`
	Total     int            `json:"total"`
	Committed int            `json:"committed"`
	Ratio     float64        `json:"ratio"`
	Thin      bool           `json:"thin"`
}

// ScopeCounts summarizes the decisions of one scope.
type ScopeCounts struct {
	Scope  decision.Scope         `json:"scope"`
	Total  int                    `json:"total"`
	States map[decision.State]int `json:"states"`
	Levels map[decision.Level]int `json:"levels"`
}

// Report is the content of HEALTH.md.
type Report struct {
	Date             string           `json:"date"`
	Governance       ScopeCounts      `json:"governance"`
	Project          ScopeCounts      `json:"project"`
	Total            int              `json:"total"`
	Certainty        []LevelCertainty `json:"certainty"`
	Suggested        []string         `json:"suggested"`
	Superseded       []string         `json:"superseded"`
	ValidationErrors int              `json:"validation_errors"`
	Orphans          []string         `json:"orphans"`
	Stale            []string         `json:"stale"`
	// StaleSource is "git" when history came from commits, else "date".
	StaleSource string `json:"stale_source,omitempty"`
	ManualFlags string `json:"-"`
}

// Options tunes Compute.
type Options struct {
	ThinThreshold float64
	// StaleAfter marks suggested decisions untouched this long. Zero disables.
	StaleAfter time.Duration
	// History, when set, supplies last-commit times; otherwise the
	// frontmatter date is used.
	History *history.Tracker
	Rules   *validate.Rules
	Now     func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Compute builds the health report for g. ctx bounds the history lookup only;
// when it expires the report falls back to frontmatter dates.
func Compute(ctx context.Context, g *graph.Graph, issues []store.LoadIssue, opts Options) *Report {
	if opts.ThinThreshold <= 0 {
		opts.ThinThreshold = DefaultThinThreshold
	}
	now := opts.now()

	r := &Report{
		Date:       now.Format(time.DateOnly),
		Governance: newScopeCounts(decision.ScopeGovernance),
		Project:    newScopeCounts(decision.ScopeProject),
		Suggested:  []string{},
		Superseded: []string{},
		Orphans:    []string{},
		Stale:      []string{},
	}

	for _, d := range g.Nodes() {
		sc := &r.Project
		if d.Scope == decision.ScopeGovernance {
			sc = &r.Governance
		}
		sc.Total++
		sc.States[d.State]++
		sc.Levels[d.Level]++
		r.Total++

		switch d.State {
		case decision.StateSuggested:
			r.Suggested = append(r.Suggested, d.ID)
		case decision.StateSuperseded:
			r.Superseded = append(r.Superseded, d.ID)
		}
		if d.Level > decision.LevelIdentity && g.Orphan(d.ID) {
			r.Orphans = append(r.Orphans, d.ID)
		}
	}

	r.Certainty = certainty(g, opts.ThinThreshold)
	r.ValidationErrors = len(validate.Graph(g, issues, opts.Rules).Errors)
	r.Stale, r.StaleSource = stale(ctx, g, opts, now)
	return r
}

func newScopeCounts(scope decision.Scope) ScopeCounts {
	return ScopeCounts{
		Scope:  scope,
		States: make(map[decision.State]int),
		Levels: make(map[decision.Level]int),
	}
}

func certainty(g *graph.Graph, threshold float64) []LevelCertainty {
	out := make([]LevelCertainty, 0, len(decision.Levels))
	for _, lvl := range decision.Levels {
		lc := LevelCertainty{Level: lvl, Name: lvl.Name()}
		for _, d := range g.Nodes() {
			if d.Level != lvl || d.State == decision.StateSuperseded {
				continue
			}
			lc.Total++
			if d.State == decision.StateCommitted {
				lc.Committed++
			}
		}
		if lc.Total > 0 {
			lc.Ratio = float64(lc.Committed) / float64(lc.Total)
		}
		lc.Thin = lc.Total == 0 || lc.Ratio < threshold
		out = append(out, lc)
	}
	return out
}

func stale(ctx context.Context, g *graph.Graph, opts Options, now time.Time) ([]string, string) {
	ids := []string{}
	if opts.StaleAfter <= 0 {
		return ids, ""
	}

	var suggested []*decision.Decision
	for _, d := range g.Nodes() {
		if d.State == decision.StateSuggested {
			suggested = append(suggested, d)
		}
	}

	source := "date"
	var commits map[string]time.Time
	if opts.History != nil {
		paths := make([]string, 0, len(suggested))
		for _, d := range suggested {
			if d.Path != "" {
				paths = append(paths, d.Path)
			}
		}
		if c, err := opts.History.LastCommits(ctx, paths); err == nil {
			commits = c
			source = "git"
		}
	}

	cutoff := now.Add(-opts.StaleAfter)
	for _, d := range suggested {
		touched, ok := commits[d.Path]
		if !ok {
			parsed, err := time.Parse(time.DateOnly, d.Date)
			if err != nil {
				continue
			}
			touched = parsed
		}
		if touched.Before(cutoff) {
			ids = append(ids, d.ID)
		}
	}
	return ids, source
}

// FoundationThin reports whether the Identity or Direction level is thin.
func (r *Report) FoundationThin() bool {
	for _, lc := range r.Certainty {
		if lc.Level <= decision.LevelDirection && lc.Thin {
			return true
		}
	}
	return false
}

// Flagged returns the flagged-item lines of the report.
func (r *Report) Flagged() []string {
	var items []string
	if n := len(r.Suggested); n > 0 {
		items = append(items, fmt.Sprintf("%d decisions at `suggested` (%s)", n, strings.Join(r.Suggested, ", ")))
	}
	if n := len(r.Superseded); n > 0 {
		items = append(items, fmt.Sprintf("%d decisions at `superseded` (%s)", n, strings.Join(r.Superseded, ", ")))
	}
	if r.ValidationErrors > 0 {
		items = append(items, fmt.Sprintf("%d validation error(s) — run `dna validate` for details", r.ValidationErrors))
	}
	if len(r.Orphans) > 0 {
		items = append(items, fmt.Sprintf("%d orphaned decision(s) (%s)", len(r.Orphans), strings.Join(r.Orphans, ", ")))
	}
	if len(r.Stale) > 0 {
		items = append(items, fmt.Sprintf("%d stale suggestion(s), unchanged by %s (%s)", len(r.Stale), r.StaleSource, strings.Join(r.Stale, ", ")))
	}
	return items
}

// Render produces HEALTH.md, ending with a digest of the generated content.
func (r *Report) Render() string {
	var sb strings.Builder
	sb.WriteString("# System Health\n\n")
	fmt.Fprintf(&sb, "Last updated: %s\n\n", r.Date)

	sb.WriteString("## Node Counts\n\n")
	if r.Governance.Total > 0 {
		sb.WriteString("### Constitution\n")
		writeScope(&sb, r.Governance)
		sb.WriteString("\n### DNA\n")
	}
	writeScope(&sb, r.Project)
	fmt.Fprintf(&sb, "- **Total: %d decisions**\n\n", r.Total)

	sb.WriteString("## Certainty\n\n")
	sb.WriteString("| Level | Committed | Total | Ratio | |\n")
	sb.WriteString("|-------|-----------|-------|-------|-|\n")
	for _, lc := range r.Certainty {
		mark := ""
		if lc.Thin {
			mark = "thin"
		}
		fmt.Fprintf(&sb, "| L%d %s | %d | %d | %d%% | %s |\n",
			lc.Level, lc.Name, lc.Committed, lc.Total, int(lc.Ratio*100), mark)
	}
	sb.WriteString("\n")

	sb.WriteString("## Flagged Items\n\n")
	flagged := r.Flagged()
	if len(flagged) == 0 {
		sb.WriteString("- No issues found.\n")
	}
	for _, item := range flagged {
		fmt.Fprintf(&sb, "- %s\n", item)
	}
	sb.WriteString("\n")

	if r.ManualFlags != "" {
		fmt.Fprintf(&sb, "## %s\n\n%s\n\n", manualFlagsHeading, r.ManualFlags)
	}

	sb.WriteString("## Last Session\n\n")
	fmt.Fprintf(&sb, "%s — Health regenerated by dna\n", r.Date)

	content := sb.String()
	return content + fmt.Sprintf("\n<!-- dna:digest sha256=%s -->\n", digest(content))
}

func writeScope(sb *strings.Builder, sc ScopeCounts) {
	fmt.Fprintf(sb, "- Decisions: %d — %s\n", sc.Total, stateSummary(sc))
	fmt.Fprintf(sb, "- Levels: %s\n", levelSummary(sc))
}

func stateSummary(sc ScopeCounts) string {
	states := make([]string, 0, len(sc.States))
	for s := range sc.States {
		states = append(states, string(s))
	}
	sort.Strings(states)

	parts := make([]string, 0, len(states))
	for _, s := range states {
		n := sc.States[decision.State(s)]
		if n == sc.Total {
			parts = append(parts, fmt.Sprintf("all `%s`", s))
		} else {
			parts = append(parts, fmt.Sprintf("%d `%s`", n, s))
		}
	}
	if len(parts) == 0 {
		return "—"
	}
	return strings.Join(parts, ", ")
}

func levelSummary(sc ScopeCounts) string {
	levels := make([]int, 0, len(sc.Levels))
	for l := range sc.Levels {
		levels = append(levels, int(l))
	}
	sort.Ints(levels)

	parts := make([]string, 0, len(levels))
	for _, l := range levels {
		parts = append(parts, fmt.Sprintf("L%d: %d", l, sc.Levels[decision.Level(l)]))
	}
	if len(parts) == 0 {
		return "—"
	}
	return strings.Join(parts, ", ")
}

// digest hashes the generated content with the Manual Flags section removed,
// so editing manual flags is never reported as a manual edit.
func digest(content string) string {
	sum := sha256.Sum256([]byte(withoutManualFlags(content)))
	return hex.EncodeToString(sum[:])
}

func withoutManualFlags(content string) string {
	heading := "## " + manualFlagsHeading
	start := strings.Index(content, "\n"+heading+"\n")
	if start == -1 {
		return content
	}
	start++
	section, _ := decision.Section(content[start:], manualFlagsHeading)
	return content[:start] + content[start+len(heading)+len(section):]
}

// Existing is what Write learned from the previous HEALTH.md.
type Existing struct {
	ManualFlags string
	// ManuallyEdited is true when the generated part no longer matches its digest.
	ManuallyEdited bool
}

// ReadExisting inspects a previous HEALTH.md. A missing file yields the zero value.
func ReadExisting(path string) (Existing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Existing{}, nil
		}
		return Existing{}, errors.NewIOError("read", path, err)
	}
	content := string(data)

	var ex Existing
	if section, ok := decision.Section(content, manualFlagsHeading); ok {
		ex.ManualFlags = strings.TrimSpace(digestLine.ReplaceAllString(section, ""))
	}
	if m := digestLine.FindStringSubmatchIndex(content); m != nil {
		want := content[m[2]:m[3]]
		generated := strings.TrimSuffix(content[:m[0]], "\n")
		ex.ManuallyEdited = digest(generated) != want
	}
	return ex, nil
}

// Write renders r to path, carrying over the Manual Flags section of the
// previous file. The returned Existing reports whether that file was hand edited.
func Write(path string, r *Report) (Existing, error) {
	ex, err := ReadExisting(path)
	if err != nil {
		return ex, err
	}
	r.ManualFlags = ex.ManualFlags
	if err := store.WriteFileAtomic(path, []byte(r.Render()), 0o644); err != nil {
		return ex, err
	}
	return ex, nil
}
