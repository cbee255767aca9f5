package ui

import (
	"os"
	"runtime"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/term"
)

var (
	unicodeOnce sync.Once
	unicodeOK   bool
)

// UnicodeTerminal reports whether the console can draw box-drawing
// characters and status glyphs. It is false when stderr is redirected,
// TERM is "dumb", or on a legacy Windows console (Windows Terminal sets
// WT_SESSION, conhost does not).
func UnicodeTerminal() bool {
	unicodeOnce.Do(func() {
		switch {
		case os.Getenv("TERM") == "dumb", !IsTerminal(os.Stderr):
		case runtime.GOOS == "windows":
			unicodeOK = os.Getenv("WT_SESSION") != ""
		default:
			unicodeOK = true
		}
	})
	return unicodeOK
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the column count of stdout, or fallback when
// stdout is not a terminal.
func TerminalWidth(fallback int) int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// TableCellWidth is the widest cell a console table may print before
// truncation. Piped output is never truncated so the text stays
// greppable.
func TableCellWidth() int {
	if !IsTerminal(os.Stdout) {
		return 0
	}
	return max(TerminalWidth(0)/4, minCellWidth)
}

const minCellWidth = 24

// Icon picks the glyph or its ASCII stand-in: ui.Icon("✔", "[+]").
func Icon(glyph, ascii string) string {
	if UnicodeTerminal() {
		return glyph
	}
	return ascii
}

// SanitizeString drops symbols a legacy console cannot render. Latin
// text such as policy names with accents is kept.
func SanitizeString(s string) string {
	if UnicodeTerminal() {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r <= 0xFF || unicode.Is(unicode.Latin, r) {
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	return b.String()
}
