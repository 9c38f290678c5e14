package cmdutil

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"

	"github.com/fraim-ai/fraim-toolkit/internal/util"
)

// Colors match the dna terminal palette.
var (
	PrimaryColor = lipgloss.Color("#A78BFA") // Purple
	SuccessColor = lipgloss.Color("#10B981") // Green
	WarningColor = lipgloss.Color("#F59E0B") // Amber
	ErrorColor   = lipgloss.Color("#F87171") // Red
	MutedColor   = lipgloss.Color("#9CA3AF") // Gray
)

// defaultWidth is used when the output is not a terminal.
const defaultWidth = 100

// Printer writes human-readable command output. Styling is applied only when
// the destination is a terminal.
type Printer struct {
	w     io.Writer
	color bool
	width int

	heading lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
}

// NewPrinter returns a Printer for w.
func NewPrinter(w io.Writer) *Printer {
	p := &Printer{w: w, width: defaultWidth}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.color = true
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			p.width = width
		}
	}

	base := lipgloss.NewStyle()
	p.heading, p.success, p.warning, p.failure, p.muted = base, base, base, base, base
	if p.color {
		p.heading = base.Bold(true).Foreground(PrimaryColor)
		p.success = base.Foreground(SuccessColor)
		p.warning = base.Foreground(WarningColor)
		p.failure = base.Bold(true).Foreground(ErrorColor)
		p.muted = base.Foreground(MutedColor)
	}
	return p
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer { return p.w }

// Width returns the usable output width in columns.
func (p *Printer) Width() int { return p.width }

// Println writes a plain line.
func (p *Printer) Println(a ...any) {
	fmt.Fprintln(p.w, a...)
}

// Printf writes formatted plain text.
func (p *Printer) Printf(format string, a ...any) {
	fmt.Fprintf(p.w, format, a...)
}

// Heading writes a section heading.
func (p *Printer) Heading(s string) {
	fmt.Fprintln(p.w, p.heading.Render(s))
}

// Success writes a line marked as successful.
func (p *Printer) Success(format string, a ...any) {
	fmt.Fprintln(p.w, p.success.Render("✓ "+fmt.Sprintf(format, a...)))
}

// Warn writes a warning line.
func (p *Printer) Warn(format string, a ...any) {
	fmt.Fprintln(p.w, p.warning.Render("⚠ "+fmt.Sprintf(format, a...)))
}

// Fail writes an error line.
func (p *Printer) Fail(format string, a ...any) {
	fmt.Fprintln(p.w, p.failure.Render("✗ "+fmt.Sprintf(format, a...)))
}

// Muted writes a de-emphasized line.
func (p *Printer) Muted(format string, a ...any) {
	fmt.Fprintln(p.w, p.muted.Render(fmt.Sprintf(format, a...)))
}

// Rule writes a horizontal separator.
func (p *Printer) Rule() {
	fmt.Fprintln(p.w, p.muted.Render(strings.Repeat("─", min(p.width, 60))))
}

// Row writes one table row. Each cell but the last is padded to the given
// column width; the row is truncated to the output width.
func (p *Printer) Row(widths []int, cells ...string) {
	var sb strings.Builder
	for i, cell := range cells {
		if i < len(widths) && i < len(cells)-1 {
			sb.WriteString(Pad(cell, widths[i]))
			sb.WriteByte(' ')
			continue
		}
		sb.WriteString(cell)
	}
	fmt.Fprintln(p.w, util.TruncateWidth(sb.String(), p.width))
}

// Pad right-pads s to width visible columns, ignoring escape sequences.
func Pad(s string, width int) string {
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
