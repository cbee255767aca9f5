package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/policyaudit/policyaudit/pkg/audit"
	"github.com/policyaudit/policyaudit/pkg/config"
	"github.com/policyaudit/policyaudit/pkg/defaults"
	"github.com/policyaudit/policyaudit/pkg/duration"
	"github.com/policyaudit/policyaudit/pkg/fortigate"
	"github.com/policyaudit/policyaudit/pkg/httpclient"
	"github.com/policyaudit/policyaudit/pkg/normalize"
	"github.com/policyaudit/policyaudit/pkg/output/writers"
	"github.com/policyaudit/policyaudit/pkg/telemetry"
	"github.com/policyaudit/policyaudit/pkg/ui"
)

// newLogger returns a text logger on stderr, at debug level when verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig parses args into a Config. Parse errors are usage errors.
func loadConfig(name string, args []string, extra func(fs *flag.FlagSet)) (*config.Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	o := config.RegisterFlags(fs)
	if extra != nil {
		extra(fs)
	}
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s %s [flags]\n\nFlags:\n", defaults.ToolName, name)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected argument %q", errUsage, fs.Arg(0))
	}
	return config.Load(o, os.LookupEnv)
}

// setupEnvironment applies the UI settings and installs the default logger.
func setupEnvironment(cfg *config.Config) *slog.Logger {
	if cfg.NoColor || os.Getenv("NO_COLOR") != "" {
		ui.SetNoColor(true)
	}
	logger := newLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)
	return logger
}

// resolveLocation loads the configured zone, warning on fallback to UTC.
func resolveLocation(cfg *config.Config, logger *slog.Logger) *time.Location {
	loc, err := normalize.LoadLocation(cfg.TimeZone)
	if err != nil {
		logger.Warn("unknown time zone, using UTC", "tz", cfg.TimeZone, "error", err)
		ui.PrintWarning("Unknown time zone " + strconv.Quote(cfg.TimeZone) + ", timestamps use UTC")
	}
	return loc
}

func runAudit(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := loadConfig("run", args, nil)
	if err != nil {
		return err
	}
	logger := setupEnvironment(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ui.PrintBanner()
	ui.PrintConfigBanner(configBanner(cfg))

	tp, err := telemetry.Setup(ctx, telemetry.Options{
		Endpoint: cfg.OTelEndpoint,
		Insecure: true,
		Logger:   logger,
	})
	if err != nil {
		// Tracing is optional; the audit runs without it.
		logger.Warn("tracing disabled", "error", err)
		tp = nil
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	client, err := fortigate.New(fortigate.Config{
		BaseURL:   cfg.BaseURL,
		Token:     cfg.Token,
		VerifyTLS: cfg.VerifyTLS,
		Timeout:   cfg.Timeout,
		Proxy:     cfg.Proxy,
		Retries:   cfg.Retries,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	if !cfg.VerifyTLS {
		ui.PrintWarning("TLS certificate verification is disabled")
	}

	ctx, cancel := context.WithTimeout(ctx, duration.ContextMedium)
	defer cancel()

	runner := audit.New(client, audit.Options{
		VDOM:     cfg.VDOM,
		Location: resolveLocation(cfg, logger),
		Source:   client.BaseURL(),
		Outputs:  outputsFrom(cfg),
		Console:  stdout,
		Table: writers.TableConfig{
			Unicode:      ui.UnicodeTerminal(),
			ColorEnabled: !ui.IsNoColor() && ui.IsTerminal(os.Stdout),
			MaxColWidth:  ui.TableCellWidth(),
		},
		Logger: logger,
		Tracer: tp.Tracer(),
	})
	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	ui.PrintSummary(ui.Summary{
		Appliance:   client.BaseURL(),
		VDOM:        cfg.VDOM,
		Total:       res.Report.Summary.Total,
		WithTraffic: res.Report.Summary.WithTraffic,
		NoTraffic:   res.Report.Summary.NoTraffic,
		Permissive:  res.Report.Summary.Permissive,
		Duration:    res.Elapsed,
	})
	return nil
}

func outputsFrom(cfg *config.Config) audit.Outputs {
	return audit.Outputs{
		MonitorCSV: cfg.OutMonitorCSV,
		CMDBCSV:    cfg.OutCMDBCSV,
		MergedCSV:  cfg.OutMergedCSV,
		PDF:        cfg.OutPDF,
		JSON:       cfg.OutJSON,
		XLSX:       cfg.OutXLSX,
		Metrics:    cfg.MetricsFile,
	}
}

// configBanner lists the effective settings. The token and proxy
// password are never shown.
func configBanner(cfg *config.Config) map[string]string {
	opts := map[string]string{
		"Appliance":   cfg.BaseURL,
		"VDOM":        cfg.VDOM,
		"Time Zone":   cfg.TimeZone,
		"Verify TLS":  strconv.FormatBool(cfg.VerifyTLS),
		"Timeout":     cfg.Timeout.String(),
		"Config File": cfg.ConfigFile,
		"Monitor CSV": cfg.OutMonitorCSV,
		"CMDB CSV":    cfg.OutCMDBCSV,
		"Merged CSV":  cfg.OutMergedCSV,
		"PDF":         cfg.OutPDF,
		"JSON":        cfg.OutJSON,
		"XLSX":        cfg.OutXLSX,
		"Metrics":     cfg.MetricsFile,
	}
	if p, err := httpclient.ParseProxy(cfg.Proxy); err == nil {
		opts["Proxy"] = p.String()
	}
	if cfg.Retries > 0 {
		opts["Retries"] = strconv.Itoa(cfg.Retries)
	}
	return opts
}
