package writers

import (
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/policyaudit/policyaudit/pkg/policy"
)

// boxSet holds the characters a table frame is drawn with.
type boxSet struct {
	TopLeft, TopMid, TopRight          string
	MidLeft, Cross, MidRight           string
	BottomLeft, BottomMid, BottomRight string
	Horizontal, Vertical               string
}

// boxChars contains Unicode box-drawing characters.
var boxChars = boxSet{
	"┌", "┬", "┐",
	"├", "┼", "┤",
	"└", "┴", "┘",
	"─", "│",
}

// asciiChars frames every border with + - and |.
var asciiChars = boxSet{
	"+", "+", "+",
	"+", "+", "+",
	"+", "+", "+",
	"-", "|",
}

// TableConfig configures the table writer behavior.
type TableConfig struct {
	// Unicode draws the frame with box-drawing characters when the output
	// can render them. ASCII otherwise.
	Unicode bool

	// ColorEnabled renders the header row in bold.
	ColorEnabled bool

	// MaxColWidth truncates cells wider than this many columns (0 = no limit).
	MaxColWidth int
}

// TableWriter renders records as a framed, left-aligned text table.
// The writer is safe for concurrent use.
type TableWriter struct {
	w      io.Writer
	mu     sync.Mutex
	config TableConfig
	chars  *boxSet
	header lipgloss.Style
}

// NewTableWriter creates a table writer that writes to w.
func NewTableWriter(w io.Writer, config TableConfig) *TableWriter {
	chars := &asciiChars
	if config.Unicode && boxDrawingSupported(w) {
		chars = &boxChars
	}
	header := lipgloss.NewStyle()
	if config.ColorEnabled {
		header = header.Bold(true)
	}
	return &TableWriter{w: w, config: config, chars: chars, header: header}
}

// WriteTable renders rows under headers. Each column is as wide as its
// widest cell; cells are padded by one space on each side.
func (tw *TableWriter) WriteTable(headers []string, rows []policy.Row) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	cells := make([][]string, len(rows))
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for r, row := range rows {
		cells[r] = make([]string, len(headers))
		for i, h := range headers {
			v := row.Field(h)
			if tw.config.MaxColWidth > 0 {
				v = truncateCell(v, tw.config.MaxColWidth)
			}
			cells[r][i] = v
			if n := lipgloss.Width(v); n > widths[i] {
				widths[i] = n
			}
		}
	}

	c := tw.chars
	var b strings.Builder
	tw.rule(&b, widths, c.TopLeft, c.TopMid, c.TopRight)
	tw.line(&b, widths, headers, true)
	tw.rule(&b, widths, c.MidLeft, c.Cross, c.MidRight)
	for _, row := range cells {
		tw.line(&b, widths, row, false)
	}
	tw.rule(&b, widths, c.BottomLeft, c.BottomMid, c.BottomRight)

	_, err := io.WriteString(tw.w, b.String())
	return err
}

func (tw *TableWriter) rule(b *strings.Builder, widths []int, left, mid, right string) {
	b.WriteString(left)
	for i, w := range widths {
		if i > 0 {
			b.WriteString(mid)
		}
		b.WriteString(strings.Repeat(tw.chars.Horizontal, w+2))
	}
	b.WriteString(right)
	b.WriteByte('\n')
}

func (tw *TableWriter) line(b *strings.Builder, widths []int, cells []string, header bool) {
	b.WriteString(tw.chars.Vertical)
	for i, w := range widths {
		if i > 0 {
			b.WriteString(tw.chars.Vertical)
		}
		v := cells[i]
		padded := " " + v + strings.Repeat(" ", w-lipgloss.Width(v)) + " "
		if header && tw.config.ColorEnabled {
			padded = tw.header.Render(padded)
		}
		b.WriteString(padded)
	}
	b.WriteString(tw.chars.Vertical)
	b.WriteByte('\n')
}

// truncateCell shortens s to limit runes, marking the cut with "...".
func truncateCell(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
