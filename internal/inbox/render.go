package inbox

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FormatMarkdown renders messages for delivery into a caller's output,
// grouped by priority. It returns "" when there are no messages.
func FormatMarkdown(messages []Message) string {
	if len(messages) == 0 {
		return ""
	}

	groups := make(map[Priority][]Message)
	for _, msg := range messages {
		groups[msg.Priority] = append(groups[msg.Priority], msg)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Inbox (%d message", len(messages))
	if len(messages) != 1 {
		b.WriteString("s")
	}
	b.WriteString(")\n")

	for _, p := range []Priority{PriorityCritical, PriorityNormal, PriorityLow} {
		group := groups[p]
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n### %s\n\n", strings.ToUpper(string(p)))
		for _, msg := range group {
			fmt.Fprintf(&b, "- **%s** %s _(%s)_\n", msg.Type, msg.Detail, msg.ID)
			if len(msg.Context) > 0 {
				fmt.Fprintf(&b, "  - context: %s\n", formatContext(msg.Context))
			}
		}
	}
	return b.String()
}

// formatContext renders a context payload as compact key=value pairs with
// sorted keys. Nested values are shown as JSON.
func formatContext(ctx map[string]any) string {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := ctx[k]
		switch v.(type) {
		case map[string]any, []any:
			data, err := json.Marshal(v)
			if err == nil {
				parts = append(parts, fmt.Sprintf("%s=%s", k, data))
				continue
			}
		}
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, ", ")
}
