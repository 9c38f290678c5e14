// Package util holds small text helpers shared by the report renderers and
// the command output.
package util

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const ellipsis = "..."

// Truncate shortens s to at most maxLen runes, ending in "..." when cut.
// It ignores escape sequences and wide characters; use TruncateWidth for
// styled terminal text.
func Truncate(s string, maxLen int) string {
	if maxLen <= len(ellipsis) {
		return ellipsis
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-len(ellipsis)]) + ellipsis
}

// TruncateWidth shortens s to maxWidth terminal columns. Escape sequences
// are preserved and do not count toward the width.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= len(ellipsis) {
		return ellipsis
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	// ansi.Truncate counts the tail toward maxWidth
	return ansi.Truncate(s, maxWidth, ellipsis)
}

// EscapeCell makes s safe inside a markdown table cell.
func EscapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return CollapseSpace(s)
}

// CollapseSpace trims s and replaces every whitespace run with one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
