// Command policy-audit audits FortiGate firewall policies against their
// traffic counters and writes CSV tables and a PDF report.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	// Zone database for -tz on hosts without one.
	_ "time/tzdata"

	"github.com/policyaudit/policyaudit/pkg/defaults"
	"github.com/policyaudit/policyaudit/pkg/ui"
)

func printUsage(w io.Writer) {
	fmt.Fprintln(w, ui.SectionStyle.Render("FORTIGATE POLICY AUDIT"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", ui.HelpStyle.Render("Usage:"))
	fmt.Fprintf(w, "    %s  Fetch policies and counters, write tables and report (default)\n", ui.ConfigValueStyle.Render("run     "))
	fmt.Fprintf(w, "    %s  Rebuild the report from an existing merged CSV\n", ui.ConfigValueStyle.Render("report  "))
	fmt.Fprintf(w, "    %s  Print version information\n", ui.ConfigValueStyle.Render("version "))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", ui.HelpStyle.Render("Examples:"))
	fmt.Fprintf(w, "    %s\n", ui.ConfigValueStyle.Render(defaults.ToolName+" run -url https://fw.example.com -token $TOKEN"))
	fmt.Fprintf(w, "    %s\n", ui.ConfigValueStyle.Render(defaults.ToolName+" run -config audit.yaml -out-xlsx audit.xlsx"))
	fmt.Fprintf(w, "    %s\n", ui.ConfigValueStyle.Render(defaults.ToolName+" report -in "+defaults.OutMergedCSV+" -out-pdf report.pdf"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Settings are read from flags, then the environment, then %s.\n", defaults.EnvFile)
	fmt.Fprintf(w, "  Run '%s run -h' for every setting.\n", defaults.ToolName)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := dispatch(ctx, os.Args[1:], os.Stdout)
	cancel()
	os.Exit(code)
}

// dispatch runs the subcommand named by args[0] and returns the exit code.
func dispatch(ctx context.Context, args []string, stdout io.Writer) int {
	cmd := "run"
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "run", "audit":
		err = runAudit(ctx, args, stdout)
	case "report", "pdf":
		err = runReport(ctx, args)
	case "version":
		fmt.Fprintf(stdout, "%s %s (commit %s, built %s)\n", defaults.ToolName, ui.Version, ui.Commit, ui.BuildDate)
	case "help":
		printUsage(stdout)
	default:
		printUsage(os.Stderr)
		err = fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	return exitCode(err)
}
