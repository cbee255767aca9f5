package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Version information - these can be overridden at build time via ldflags:
// go build -ldflags "-X github.com/policyaudit/policyaudit/pkg/ui.Version=1.2.0"
var (
	Version   = "1.2.0"
	BuildDate = "2026-01-21"
	Commit    = "dev"
)

// Global UI state
var (
	silentMode  bool
	noColorMode bool
	stderr      io.Writer = os.Stderr
	uiMu        sync.RWMutex
)

// SetSilent enables or disables silent mode (suppresses most output)
func SetSilent(silent bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	silentMode = silent
}

// IsSilent returns whether silent mode is enabled
func IsSilent() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return silentMode
}

// SetNoColor disables colored output
func SetNoColor(noColor bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	noColorMode = noColor
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// IsNoColor returns whether color is disabled
func IsNoColor() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return noColorMode
}

// SetOutput redirects status output. It returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	uiMu.Lock()
	defer uiMu.Unlock()
	prev := stderr
	stderr = w
	return prev
}

func errOut() io.Writer {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return stderr
}

const bannerArt = `
            ___                             ___ __
   ___ ___ / (_)______ __ ____ ___ _____ __/ (_) /_
  / _ / _ \/ / / __/ // //___// _ '/ // / _  / / __/
 / .__\___/_/_/\__/\_, /      \_,_/\_,_/\_,_/_/\__/
/_/               /___/
`

// Separator line
const bannerSeparator = "________________________________________________"

// PrintBanner prints the application banner with version info
func PrintBanner() {
	if IsSilent() {
		return
	}
	w := errOut()
	for _, line := range strings.Split(bannerArt, "\n") {
		if line != "" {
			fmt.Fprintln(w, BannerStyle.Render(line))
		}
	}
	fmt.Fprintf(w, "                       v%s\n\n", VersionStyle.Render(Version))
}

// printOption prints a configuration option.
// Format:  :: Option              : Value
func printOption(w io.Writer, name, value string) {
	fmt.Fprintf(w, " :: %-20s : %s\n", ConfigLabelStyle.Render(name), ConfigValueStyle.Render(value))
}

// PrintConfigBanner shows the effective settings before the run starts.
func PrintConfigBanner(options map[string]string) {
	if IsSilent() {
		return
	}
	w := errOut()
	order := []string{
		"Appliance", "VDOM", "Time Zone", "Verify TLS", "Timeout", "Retries", "Proxy",
		"Config File", "Monitor CSV", "CMDB CSV", "Merged CSV", "PDF", "JSON", "XLSX", "Metrics",
	}

	printed := make(map[string]bool)
	for _, name := range order {
		if value, ok := options[name]; ok && value != "" {
			printOption(w, name, value)
			printed[name] = true
		}
	}
	for name, value := range options {
		if !printed[name] && value != "" {
			printOption(w, name, value)
		}
	}

	fmt.Fprintf(w, "%s\n\n", DividerStyle.Render(bannerSeparator))
}

// PrintDivider prints a stylized divider (to stderr)
func PrintDivider() {
	fmt.Fprintln(errOut(), DividerStyle.Render(strings.Repeat("-", 75)))
}

// PrintSection prints a section header (to stderr)
func PrintSection(title string) {
	w := errOut()
	fmt.Fprintln(w)
	fmt.Fprintln(w, SectionStyle.Render("> "+title))
	PrintDivider()
}

// StageBanner is the heading printed above each stage's table.
func StageBanner(title string) string {
	return "=== " + title + " ==="
}

// PrintStage writes a stage banner to w, preceded by a blank line.
func PrintStage(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, StageStyle.Render(StageBanner(title)))
}

// PrintHelp prints contextual help (to stderr)
func PrintHelp(text string) {
	fmt.Fprintln(errOut(), HelpStyle.Render("  [i] "+text))
}

// PrintSuccess prints a success message (to stderr)
func PrintSuccess(message string) {
	if IsSilent() {
		return
	}
	fmt.Fprintln(errOut(), PassStyle.Render(SanitizeString("  "+Icon("✔", "[+]")+" "+message)))
}

// PrintError prints an error message (to stderr)
func PrintError(message string) {
	fmt.Fprintln(errOut(), FailStyle.Render(SanitizeString("  "+Icon("✘", "[X]")+" "+message)))
}

// PrintWarning prints a warning message (to stderr)
func PrintWarning(message string) {
	fmt.Fprintln(errOut(), WarnStyle.Render(SanitizeString("  "+Icon("⚠", "[!]")+" "+message)))
}

// PrintInfo prints an info message (to stderr)
func PrintInfo(message string) {
	if IsSilent() {
		return
	}
	fmt.Fprintf(errOut(), "  %s %s\n", BulletStyle.Render("*"), SanitizeString(message))
}
