package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/policyaudit/policyaudit/pkg/audit"
	"github.com/policyaudit/policyaudit/pkg/config"
	"github.com/policyaudit/policyaudit/pkg/ui"
)

// runReport rebuilds the report documents from a merged CSV. It never
// contacts the appliance, so no credentials are required.
func runReport(ctx context.Context, args []string) error {
	var input string
	cfg, err := loadConfig("report", args, func(fs *flag.FlagSet) {
		fs.StringVar(&input, "in", "", "Merged CSV to read (default: the -out-merged path)")
	})
	if err != nil {
		return err
	}
	logger := setupEnvironment(cfg)
	if input == "" {
		input = cfg.OutMergedCSV
	}
	if input == "" {
		return fmt.Errorf("%w: no input table", config.ErrMissingRequired)
	}
	if cfg.OutPDF == "" && cfg.OutJSON == "" && cfg.OutXLSX == "" {
		return fmt.Errorf("%w: nothing to write, set -out-pdf, -out-json or -out-xlsx", config.ErrInvalidConfig)
	}

	ui.PrintBanner()
	ui.PrintConfigBanner(map[string]string{
		"Merged CSV": input,
		"VDOM":       cfg.VDOM,
		"PDF":        cfg.OutPDF,
		"JSON":       cfg.OutJSON,
		"XLSX":       cfg.OutXLSX,
	})

	res, err := audit.GenerateReport(ctx, audit.ReportOptions{
		Input: input,
		Outputs: audit.Outputs{
			PDF:  cfg.OutPDF,
			JSON: cfg.OutJSON,
			XLSX: cfg.OutXLSX,
		},
		VDOM:   cfg.VDOM,
		Source: cfg.BaseURL,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	ui.PrintSummary(ui.Summary{
		Appliance:   cfg.BaseURL,
		VDOM:        cfg.VDOM,
		Total:       res.Report.Summary.Total,
		WithTraffic: res.Report.Summary.WithTraffic,
		NoTraffic:   res.Report.Summary.NoTraffic,
		Permissive:  res.Report.Summary.Permissive,
		Duration:    res.Elapsed,
	})
	return nil
}
