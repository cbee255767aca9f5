package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Summary holds the audit counts shown at the end of a run.
type Summary struct {
	Appliance   string
	VDOM        string
	Total       int
	WithTraffic int
	NoTraffic   int
	Permissive  int
	Duration    time.Duration
}

// PrintSummary prints the summary box to stderr.
func PrintSummary(s Summary) {
	if IsSilent() {
		return
	}
	FprintSummary(errOut(), s)
}

// FprintSummary writes the summary box to w.
func FprintSummary(w io.Writer, s Summary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, SectionStyle.Render("> Audit Summary"))
	fmt.Fprintln(w, DividerStyle.Render(strings.Repeat("-", 75)))
	fmt.Fprintln(w)

	if s.Appliance != "" {
		fmt.Fprintf(w, "  %s %s\n", ConfigLabelStyle.Render("Appliance:"), URLStyle.Render(s.Appliance))
	}
	if s.VDOM != "" {
		fmt.Fprintf(w, "  %s %s\n", ConfigLabelStyle.Render("VDOM:"), ConfigValueStyle.Render(s.VDOM))
	}
	fmt.Fprintln(w)

	// Plain ASCII box; Unicode widths vary between consoles.
	const boxWidth = 50
	border := "+" + strings.Repeat("-", boxWidth-2) + "+"

	printRow := func(label, value string, valueStyle lipgloss.Style) {
		const labelW = 18
		const totalInner = 46
		fmt.Fprintf(w, "  |  %s%s|\n",
			StatLabelStyle.Render(padRight(label, labelW)),
			valueStyle.Render(padRight(value, totalInner-labelW)),
		)
	}

	fmt.Fprintln(w, BracketStyle.Render("  "+border))
	printRow("Policies:", fmt.Sprintf("%d", s.Total), StatValueStyle)
	fmt.Fprintln(w, BracketStyle.Render("  "+border))
	printRow("With traffic:", fmt.Sprintf("%d", s.WithTraffic), FindingStyle("traffic"))
	printRow("No traffic:", fmt.Sprintf("%d", s.NoTraffic), FindingStyle("idle"))
	printRow("Permissive:", fmt.Sprintf("%d", s.Permissive), FindingStyle("permissive"))
	if s.Duration > 0 {
		fmt.Fprintln(w, BracketStyle.Render("  "+border))
		printRow("Duration:", formatDuration(s.Duration), StatValueStyle)
	}
	fmt.Fprintln(w, BracketStyle.Render("  "+border))
	fmt.Fprintln(w)
}

// padRight pads a string to the right to reach a specific width.
// Uses lipgloss.Width to measure visible width (excludes ANSI codes).
func padRight(s string, width int) string {
	padding := width - lipgloss.Width(s)
	if padding <= 0 {
		return s
	}
	return s + strings.Repeat(" ", padding)
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}
