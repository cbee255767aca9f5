package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/policyaudit/policyaudit/pkg/classify"
	"github.com/policyaudit/policyaudit/pkg/defaults"
	"github.com/policyaudit/policyaudit/pkg/report"
	"github.com/policyaudit/policyaudit/pkg/telemetry"
	"github.com/policyaudit/policyaudit/pkg/ui"
)

// ErrInput is returned when the merged table to report on cannot be opened.
var ErrInput = errors.New("audit: cannot open input table")

// ReportOptions configures a report run from an existing merged table.
type ReportOptions struct {
	// Input is the merged CSV written by a previous audit run.
	Input string

	// Outputs uses only PDF, JSON and XLSX.
	Outputs Outputs

	VDOM   string
	Source string

	Logger *slog.Logger
	Tracer trace.Tracer
	Now    func() time.Time
}

// GenerateReport rebuilds the report documents from a merged CSV without
// contacting the appliance.
func GenerateReport(ctx context.Context, opts ReportOptions) (res *Result, err error) {
	logger := orDefault(opts.Logger)
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(telemetry.TracerName)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	start := time.Now()

	_, span := tracer.Start(ctx, "audit.report", trace.WithAttributes(
		attribute.String("audit.input", opts.Input),
	))
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	f, err := os.Open(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}
	defer f.Close()

	unified, err := report.FromMergedCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", opts.Input, err)
	}
	logger.Debug("merged table loaded", "path", opts.Input, "records", len(unified))

	source := opts.Source
	if source == "" {
		source = opts.Input
	}
	rep := report.Build(classify.Classify(unified), report.Meta{
		Title:     defaults.ReportTitle,
		Generated: now(),
		VDOM:      opts.VDOM,
		Source:    source,
	})

	out := &artifacts{}
	defer out.abort()
	if err := renderReport(out, rep, Outputs{PDF: opts.Outputs.PDF, JSON: opts.Outputs.JSON, XLSX: opts.Outputs.XLSX}); err != nil {
		return nil, err
	}
	written, err := out.commit()
	if err != nil {
		return nil, fmt.Errorf("write artifacts: %w", err)
	}
	for _, path := range written {
		ui.PrintSuccess("Written: " + path)
	}

	return &Result{
		Unified: unified,
		Report:  rep,
		Written: written,
		Elapsed: time.Since(start),
	}, nil
}
