// Package audit runs the policy audit pipeline: fetch both datasets,
// normalize, reconcile, classify, assemble the report and write every
// artifact.
//
// A run is all-or-nothing. Artifacts are rendered to temporary files and
// only moved into place once every stage has succeeded.
package audit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/policyaudit/policyaudit/pkg/classify"
	"github.com/policyaudit/policyaudit/pkg/defaults"
	"github.com/policyaudit/policyaudit/pkg/metrics"
	"github.com/policyaudit/policyaudit/pkg/normalize"
	"github.com/policyaudit/policyaudit/pkg/output/writers"
	"github.com/policyaudit/policyaudit/pkg/policy"
	"github.com/policyaudit/policyaudit/pkg/reconcile"
	"github.com/policyaudit/policyaudit/pkg/report"
	"github.com/policyaudit/policyaudit/pkg/telemetry"
	"github.com/policyaudit/policyaudit/pkg/ui"
)

// Stage titles printed above each console table.
const (
	StageMonitor = "MONITOR (stats)"
	StageCMDB    = "CMDB (config)"
	StageMerged  = "PRE-FINAL (merged)"
)

// Fetcher retrieves the two raw datasets. *fortigate.Client implements it.
type Fetcher interface {
	FetchStats(ctx context.Context, vdom string) (normalize.Payload, error)
	FetchConfig(ctx context.Context, vdom string) (normalize.Payload, error)
}

// Outputs are the artifact paths. Empty optional paths are skipped.
type Outputs struct {
	MonitorCSV string
	CMDBCSV    string
	MergedCSV  string
	PDF        string
	JSON       string
	XLSX       string
	Metrics    string
}

// Options configures a Runner.
type Options struct {
	VDOM     string
	Location *time.Location

	// Source identifies the appliance in report metadata.
	Source string

	Outputs Outputs

	// Console receives the stage banners and tables. Nil discards them.
	Console io.Writer
	Table   writers.TableConfig

	Logger *slog.Logger
	Tracer trace.Tracer

	// Now stamps the report. Defaults to time.Now.
	Now func() time.Time
}

// Result is the outcome of a successful run.
type Result struct {
	Stats   []policy.StatRecord
	Configs []policy.ConfigRecord
	Unified []policy.UnifiedRecord
	Report  *report.Report
	Written []string
	Elapsed time.Duration
}

// Runner executes audit runs.
type Runner struct {
	fetcher Fetcher
	opts    Options
	logger  *slog.Logger
	tracer  trace.Tracer
}

// New creates a Runner.
func New(f Fetcher, opts Options) *Runner {
	if opts.VDOM == "" {
		opts.VDOM = defaults.VDOM
	}
	if opts.Console == nil {
		opts.Console = io.Discard
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(telemetry.TracerName)
	}
	return &Runner{fetcher: f, opts: opts, logger: orDefault(opts.Logger), tracer: tracer}
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}

// Run executes the whole pipeline.
func (r *Runner) Run(ctx context.Context) (res *Result, err error) {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "audit.run", trace.WithAttributes(
		attribute.String("fortigate.vdom", r.opts.VDOM),
		attribute.String("fortigate.source", r.opts.Source),
	))
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	out := &artifacts{}
	defer out.abort()

	norm := normalize.New(normalize.Options{Location: r.opts.Location, Logger: r.logger})
	res = &Result{}

	res.Stats, err = r.monitorStage(ctx, norm, out)
	if err != nil {
		return nil, err
	}
	res.Configs, err = r.cmdbStage(ctx, norm, out)
	if err != nil {
		return nil, err
	}

	res.Unified = reconcile.Merge(res.Stats, res.Configs)
	r.logger.Debug("records reconciled", "unified", len(res.Unified))
	r.printTable(StageMerged, policy.UnifiedHeaders, policy.Rows(res.Unified))
	if err := out.render(r.opts.Outputs.MergedCSV, csvRender(policy.UnifiedHeaders, policy.Rows(res.Unified))); err != nil {
		return nil, err
	}

	_, cspan := r.tracer.Start(ctx, "audit.classify")
	classified := classify.Classify(res.Unified)
	res.Report = report.Build(classified, report.Meta{
		Title:     defaults.ReportTitle,
		Generated: r.opts.Now(),
		VDOM:      r.opts.VDOM,
		Source:    r.opts.Source,
	})
	cspan.SetAttributes(
		attribute.Int("audit.total", res.Report.Summary.Total),
		attribute.Int("audit.permissive", res.Report.Summary.Permissive),
	)
	cspan.End()

	if err := renderReport(out, res.Report, r.opts.Outputs); err != nil {
		return nil, err
	}

	res.Elapsed = time.Since(start)
	if r.opts.Outputs.Metrics != "" {
		rec, err := metrics.New()
		if err != nil {
			return nil, err
		}
		rec.Observe(res.Report, res.Elapsed)
		if err := out.render(r.opts.Outputs.Metrics, rec.Encode); err != nil {
			return nil, err
		}
	}

	res.Written, err = out.commit()
	if err != nil {
		return nil, fmt.Errorf("write artifacts: %w", err)
	}
	for _, path := range res.Written {
		ui.PrintSuccess("Written: " + path)
	}
	r.logger.Info("audit complete",
		"vdom", r.opts.VDOM,
		"policies", res.Report.Summary.Total,
		"permissive", res.Report.Summary.Permissive,
		"elapsed", res.Elapsed)
	return res, nil
}

func (r *Runner) monitorStage(ctx context.Context, norm *normalize.Normalizer, out *artifacts) ([]policy.StatRecord, error) {
	ctx, span := r.tracer.Start(ctx, "audit.monitor")
	defer span.End()

	payload, err := r.fetcher.FetchStats(ctx, r.opts.VDOM)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("fetch monitor stats: %w", err)
	}
	stats, err := norm.Stats(payload)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("normalize monitor stats: %w", err)
	}
	span.SetAttributes(attribute.Int("audit.records", len(stats)))
	r.logger.Debug("monitor stats normalized", "raw", len(payload.Results), "records", len(stats))

	r.printTable(StageMonitor, policy.StatsHeaders, policy.Rows(stats))
	if err := out.render(r.opts.Outputs.MonitorCSV, csvRender(policy.StatsHeaders, policy.Rows(stats))); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *Runner) cmdbStage(ctx context.Context, norm *normalize.Normalizer, out *artifacts) ([]policy.ConfigRecord, error) {
	ctx, span := r.tracer.Start(ctx, "audit.cmdb")
	defer span.End()

	payload, err := r.fetcher.FetchConfig(ctx, r.opts.VDOM)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("fetch cmdb config: %w", err)
	}
	configs := norm.Configs(payload)
	span.SetAttributes(attribute.Int("audit.records", len(configs)))
	r.logger.Debug("cmdb config normalized", "raw", len(payload.Results), "records", len(configs))

	r.printTable(StageCMDB, policy.ConfigHeaders, policy.Rows(configs))
	if err := out.render(r.opts.Outputs.CMDBCSV, csvRender(policy.ConfigHeaders, policy.Rows(configs))); err != nil {
		return nil, err
	}
	return configs, nil
}

func (r *Runner) printTable(stage string, headers []string, rows []policy.Row) {
	ui.PrintStage(r.opts.Console, stage)
	tw := writers.NewTableWriter(r.opts.Console, r.opts.Table)
	if err := tw.WriteTable(headers, rows); err != nil {
		r.logger.Warn("console table failed", "stage", stage, "error", err)
	}
}

func csvRender(headers []string, rows []policy.Row) func(io.Writer) error {
	return func(w io.Writer) error {
		cw := writers.NewCSVWriter(w, headers, writers.DefaultCSVOptions())
		if err := cw.WriteAll(rows); err != nil {
			return err
		}
		return cw.Close()
	}
}

// renderReport stages the document artifacts built from a report.
func renderReport(out *artifacts, rep *report.Report, o Outputs) error {
	if err := out.render(o.PDF, func(w io.Writer) error {
		return writers.NewPDFWriter(w, writers.PDFConfig{}).Write(rep)
	}); err != nil {
		return err
	}
	if err := out.render(o.JSON, func(w io.Writer) error {
		return writers.NewJSONWriter(w, writers.JSONOptions{Pretty: true}).Write(rep)
	}); err != nil {
		return err
	}
	return out.render(o.XLSX, func(w io.Writer) error {
		return writers.NewXLSXWriter(w).Write(rep)
	})
}
