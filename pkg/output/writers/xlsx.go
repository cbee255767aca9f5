package writers

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/policyaudit/policyaudit/pkg/classify"
	"github.com/policyaudit/policyaudit/pkg/policy"
	"github.com/policyaudit/policyaudit/pkg/report"
)

// Sheet names of the workbook, in order.
const (
	SheetSummary     = "Summary"
	SheetWithTraffic = "With traffic"
	SheetNoTraffic   = "No traffic"
	SheetPermissive  = "Permissive"
)

// XLSXWriter writes an audit report as a spreadsheet workbook with a
// summary sheet and one sheet per report section.
type XLSXWriter struct {
	w io.Writer
}

// NewXLSXWriter creates a workbook writer that writes to w.
func NewXLSXWriter(w io.Writer) *XLSXWriter {
	return &XLSXWriter{w: w}
}

var xlsxSheets = map[report.SectionID]string{
	report.SectionWithTraffic: SheetWithTraffic,
	report.SectionNoTraffic:   SheetNoTraffic,
	report.SectionPermissive:  SheetPermissive,
}

// Write builds the workbook for r and writes it out.
func (xw *XLSXWriter) Write(r *report.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}

	summary := [][]interface{}{
		{r.Meta.Title},
		{"Generated", r.Meta.Generated.Format(report.DisplayLayout)},
		{"Run ID", r.Meta.RunID},
		{"VDOM", r.Meta.VDOM},
		{"Source", r.Meta.Source},
		{"Total policies", r.Summary.Total},
		{"With traffic", r.Summary.WithTraffic},
		{"No traffic", r.Summary.NoTraffic},
		{"Potentially permissive", r.Summary.Permissive},
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return fmt.Errorf("xlsx: summary: %w", err)
		}
	}
	_ = f.SetCellStyle(SheetSummary, "A1", "A1", bold)
	_ = f.SetColWidth(SheetSummary, "A", "A", 26)

	headers := append(append([]string{}, policy.UnifiedHeaders...), "findings")
	for _, s := range r.Sections() {
		sheet := xlsxSheets[s.ID]
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
		if err := xw.writeSection(f, sheet, headers, s.Records); err != nil {
			return fmt.Errorf("xlsx: %s: %w", sheet, err)
		}
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(sheet, "A1", last, bold)
	}
	f.SetActiveSheet(0)

	if err := f.Write(xw.w); err != nil {
		return fmt.Errorf("xlsx: write: %w", err)
	}
	return nil
}

func (xw *XLSXWriter) writeSection(f *excelize.File, sheet string, headers []string, recs []classify.Classified) error {
	head := make([]interface{}, len(headers))
	for i, h := range headers {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return err
	}
	for i, c := range recs {
		row := make([]interface{}, 0, len(headers))
		for _, h := range policy.UnifiedHeaders {
			switch h {
			case policy.ColPolicyID:
				row = append(row, c.PolicyID)
			case policy.ColBytes:
				row = append(row, c.Bytes)
			case policy.ColPackets:
				row = append(row, c.Packets)
			case policy.ColFirstUsed:
				row = append(row, report.DisplayTime(c.FirstUsed))
			case policy.ColLastUsed:
				row = append(row, report.DisplayTime(c.LastUsed))
			default:
				row = append(row, c.Field(h))
			}
		}
		row = append(row, findingText(c))
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
