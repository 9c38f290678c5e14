package util

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{name: "short string unchanged", input: "hello", maxLen: 10, expected: "hello"},
		{name: "exact length unchanged", input: "hello", maxLen: 5, expected: "hello"},
		{name: "long string truncated", input: "hello world", maxLen: 8, expected: "hello..."},
		{name: "tiny limit is only ellipsis", input: "hello", maxLen: 3, expected: "..."},
		{name: "negative limit is only ellipsis", input: "hello", maxLen: -1, expected: "..."},
		{name: "empty string unchanged", input: "", maxLen: 10, expected: ""},
		{name: "runes counted, not bytes", input: "日本語テスト", maxLen: 5, expected: "日本..."},
		{name: "mixed ascii and unicode", input: "DEC-001 日本語 title", maxLen: 10, expected: "DEC-001..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.maxLen); got != tt.expected {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.expected)
			}
		})
	}
}

func TestTruncateWidth(t *testing.T) {
	bold := lipgloss.NewStyle().Bold(true)

	if got := TruncateWidth("DEC-001", 20); got != "DEC-001" {
		t.Errorf("short text changed: %q", got)
	}
	if got := TruncateWidth("DEC-001 depends on DEC-000", 10); got != "DEC-001..." {
		t.Errorf("plain truncation = %q", got)
	}
	if got := TruncateWidth("anything", 2); got != "..." {
		t.Errorf("tiny width = %q", got)
	}

	styled := bold.Render("a fairly long styled heading")
	if w := lipgloss.Width(TruncateWidth(styled, 12)); w > 12 {
		t.Errorf("styled result width %d exceeds 12", w)
	}

	// Wide characters take two columns each.
	if w := lipgloss.Width(TruncateWidth("日本語テストです", 9)); w > 9 {
		t.Errorf("wide result width %d exceeds 9", w)
	}
}

func TestEscapeCell(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Plain title", "Plain title"},
		{"SQL | NoSQL", `SQL \| NoSQL`},
		{"two\nlines", "two lines"},
		{"  padded\t tabs  ", "padded tabs"},
	}
	for _, tt := range tests {
		if got := EscapeCell(tt.input); got != tt.expected {
			t.Errorf("EscapeCell(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
