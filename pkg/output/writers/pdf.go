package writers

import (
	"fmt"
	"io"
	"strconv"

	gofpdf "github.com/go-pdf/fpdf"

	"github.com/policyaudit/policyaudit/pkg/classify"
	"github.com/policyaudit/policyaudit/pkg/defaults"
	"github.com/policyaudit/policyaudit/pkg/report"
)

// PDF palette.
var (
	pdfBrandColor  = []int{11, 61, 145}
	pdfGridColor   = []int{208, 215, 222}
	pdfMutedColor  = []int{68, 68, 68}
	pdfFooterColor = []int{102, 102, 102}
	pdfRowFills    = [][]int{{245, 245, 245}, {247, 249, 251}}
)

// Page geometry in millimetres.
const (
	pdfMarginLeft   = 20.0
	pdfMarginRight  = 20.0
	pdfMarginTop    = 18.0
	pdfMarginBottom = 16.0
	pdfFooterY      = -13.0
	pdfCellPadX     = 1.8
	pdfCellPadY     = 1.0
	pdfLineH        = 4.0
)

// pdfMaxCellLines bounds a wrapped table cell.
const pdfMaxCellLines = 12

// PDFConfig configures the PDF writer.
type PDFConfig struct {
	// Title overrides the report title on the first page.
	Title string

	// Footer is the text at the left of every page footer.
	Footer string

	// PageSize is an fpdf page size name (default A4).
	PageSize string
}

// PDFWriter renders an audit report as a paginated PDF document.
type PDFWriter struct {
	w          io.Writer
	config     PDFConfig
	noCompress bool // tests read content streams as plain text
	tr         func(string) string
}

// NewPDFWriter creates a PDF writer that writes to w.
func NewPDFWriter(w io.Writer, config PDFConfig) *PDFWriter {
	if config.Footer == "" {
		config.Footer = defaults.ReportFooter
	}
	if config.PageSize == "" {
		config.PageSize = "A4"
	}
	return &PDFWriter{w: w, config: config}
}

// pdfColumn is one column of a rendered table.
type pdfColumn struct {
	title string
	width float64
	align string
}

// Write renders r.
func (pw *PDFWriter) Write(r *report.Report) error {
	title := pw.config.Title
	if title == "" {
		title = r.Meta.Title
	}

	pdf := gofpdf.New("P", "mm", pw.config.PageSize, "")
	pdf.SetCompression(!pw.noCompress)
	pdf.SetMargins(pdfMarginLeft, pdfMarginTop, pdfMarginRight)
	pdf.SetAutoPageBreak(true, pdfMarginBottom)
	pdf.SetTitle(title, true)
	pdf.SetCreator(defaults.ToolName+" "+defaults.Version, true)
	if !r.Meta.Generated.IsZero() {
		pdf.SetCreationDate(r.Meta.Generated)
	}
	pw.tr = pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(pdfFooterY)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(pdfFooterColor[0], pdfFooterColor[1], pdfFooterColor[2])
		pdf.CellFormat(0, 5, pw.tr(pw.config.Footer), "", 0, "L", false, 0, "")
		pdf.SetX(pdfMarginLeft)
		pdf.CellFormat(0, 5, "Page "+strconv.Itoa(pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	pw.addTitle(pdf, title, r)
	pw.addTrafficOverview(pdf, r)
	pdf.AddPage()
	pw.addPermissive(pdf, r)

	if err := pdf.Output(pw.w); err != nil {
		return fmt.Errorf("pdf: %w", err)
	}
	return nil
}

func (pw *PDFWriter) addTitle(pdf *gofpdf.Fpdf, title string, r *report.Report) {
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(0, 10, pw.tr(title), "", "L", false)
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(pdfMutedColor[0], pdfMutedColor[1], pdfMutedColor[2])
	pdf.CellFormat(0, 5, "Generated: "+r.Meta.Generated.Format(report.DisplayLayout), "", 1, "L", false, 0, "")
	if r.Meta.VDOM != "" {
		pdf.CellFormat(0, 5, pw.tr("VDOM: "+r.Meta.VDOM), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 5, "Run: "+r.Meta.RunID, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	s := r.Summary
	pdf.SetTextColor(0, 0, 0)
	pw.writeRuns(pdf, 5,
		"B", "Total policies:", "", " "+strconv.Itoa(s.Total)+" | ",
		"B", "With traffic:", "", " "+strconv.Itoa(s.WithTraffic)+" | ",
		"B", "No traffic:", "", " "+strconv.Itoa(s.NoTraffic)+" | ",
		"B", "Potentially permissive:", "", " "+strconv.Itoa(s.Permissive),
	)
	pdf.Ln(10)
}

func (pw *PDFWriter) addTrafficOverview(pdf *gofpdf.Fpdf, r *report.Report) {
	pw.addSectionHeader(pdf, "1. Traffic Usage Overview")
	pw.writeRuns(pdf, 5,
		"", "Policies grouped by whether traffic has been observed (based on the ",
		"B", "bytes", "", " counter).",
	)
	pdf.Ln(7)

	pw.addSubHeader(pdf, "1.1 Policies with traffic")
	if r.WithTraffic.Len() == 0 {
		pw.addBody(pdf, "No policies with traffic were found.")
	} else {
		cols := []pdfColumn{
			{"ID", 12, "L"}, {"Policy", 46, "L"}, {"Bytes", 20, "R"},
			{"Pkts", 16, "R"}, {"First used", 38, "L"}, {"Last used", 38, "L"},
		}
		pw.addTable(pdf, cols, r.WithTraffic.Records, func(c classify.Classified) []string {
			return []string{
				strconv.Itoa(c.PolicyID),
				c.Name.String(),
				report.DisplayCount(c.Bytes),
				report.DisplayCount(c.Packets),
				report.DisplayTime(c.FirstUsed),
				report.DisplayTime(c.LastUsed),
			}
		})
	}
	pdf.Ln(6)

	pw.addSubHeader(pdf, "1.2 Policies with no traffic")
	pw.writeRuns(pdf, 5,
		"", "Policies below have ", "B", "bytes = 0", "", " and should be reviewed.",
	)
	pdf.Ln(7)
	if r.NoTraffic.Len() == 0 {
		pw.addBody(pdf, "No policies with zero traffic were found.")
		return
	}
	cols := []pdfColumn{
		{"ID", 12, "L"}, {"Policy", 85, "L"}, {"Bytes", 20, "R"}, {"Notes", 53, "L"},
	}
	pw.addTable(pdf, cols, r.NoTraffic.Records, func(c classify.Classified) []string {
		return []string{
			strconv.Itoa(c.PolicyID),
			c.Name.String(),
			report.DisplayCount(c.Bytes),
			NoteNoTraffic,
		}
	})
}

func (pw *PDFWriter) addPermissive(pdf *gofpdf.Fpdf, r *report.Report) {
	pw.addSectionHeader(pdf, "2. Potentially Permissive Rules")
	pw.writeRuns(pdf, 5,
		"", "Flagged when ", "B", "srcaddr", "", ", ", "B", "dstaddr", "", ", or ",
		"B", "services", "", " contains ", "B", defaults.Wildcard, "", ". Requires administrator review.",
	)
	pdf.Ln(9)

	if r.Permissive.Len() == 0 {
		pw.addBody(pdf, "No potentially permissive policies were found.")
		return
	}
	cols := []pdfColumn{
		{"ID", 10, "L"}, {"Policy", 36, "L"}, {"St", 9, "L"},
		{"In", 11, "L"}, {"Out", 11, "L"}, {"Src", 26, "L"},
		{"Dst", 26, "L"}, {"Svc", 17, "L"}, {"Finding", 24, "L"},
	}
	pw.addTable(pdf, cols, r.Permissive.Records, func(c classify.Classified) []string {
		return []string{
			strconv.Itoa(c.PolicyID),
			c.Name.String(),
			c.Status.String(),
			c.SourceInterfaces.String(),
			c.DestInterfaces.String(),
			c.SourceAddresses.String(),
			c.DestAddresses.String(),
			c.Services.String(),
			NotePermissive,
		}
	})
}

func (pw *PDFWriter) addSectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(pdfBrandColor[0], pdfBrandColor[1], pdfBrandColor[2])
	pdf.CellFormat(0, 9, pw.tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(1)
	pdf.SetTextColor(0, 0, 0)
}

func (pw *PDFWriter) addSubHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 7, pw.tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(1)
}

func (pw *PDFWriter) addBody(pdf *gofpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.MultiCell(0, 5, pw.tr(text), "", "L", false)
}

// writeRuns writes inline text with mixed weight. Arguments alternate
// between a font style ("" or "B") and the text to write in it.
func (pw *PDFWriter) writeRuns(pdf *gofpdf.Fpdf, lineH float64, runs ...string) {
	for i := 0; i+1 < len(runs); i += 2 {
		pdf.SetFont("Helvetica", runs[i], 10)
		pdf.Write(lineH, pw.tr(runs[i+1]))
	}
}

// addTable draws a grid table with a filled header row that repeats on
// every page the table spans. Cells wrap within their column.
func (pw *PDFWriter) addTable(pdf *gofpdf.Fpdf, cols []pdfColumn, recs []classify.Classified, cells func(classify.Classified) []string) {
	pdf.SetDrawColor(pdfGridColor[0], pdfGridColor[1], pdfGridColor[2])
	pdf.SetLineWidth(0.12)

	header := func() {
		titles := make([]string, len(cols))
		for i, c := range cols {
			titles[i] = c.title
		}
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(pdfBrandColor[0], pdfBrandColor[1], pdfBrandColor[2])
		pdf.SetTextColor(255, 255, 255)
		pw.drawRow(pdf, cols, titles, true, func() {})
	}

	header()
	for i, rec := range recs {
		pdf.SetFont("Helvetica", "", 8.5)
		pdf.SetTextColor(pdfMutedColor[0], pdfMutedColor[1], pdfMutedColor[2])
		fill := pdfRowFills[i%len(pdfRowFills)]
		pdf.SetFillColor(fill[0], fill[1], fill[2])
		pw.drawRow(pdf, cols, cells(rec), false, header)
	}
}

// drawRow draws one table row. When the row does not fit on the current
// page, a new page is started and onBreak redraws the header first.
func (pw *PDFWriter) drawRow(pdf *gofpdf.Fpdf, cols []pdfColumn, values []string, isHeader bool, onBreak func()) {
	lines := make([][]string, len(cols))
	maxLines := 1
	for i, c := range cols {
		lines[i] = pdf.SplitText(pw.tr(values[i]), c.width-2*pdfCellPadX)
		if len(lines[i]) == 0 {
			lines[i] = []string{""}
		}
		if !isHeader {
			lines[i] = pw.capLines(lines[i], pdfMaxCellLines)
		}
		if len(lines[i]) > maxLines {
			maxLines = len(lines[i])
		}
	}
	h := float64(maxLines)*pdfLineH + 2*pdfCellPadY

	_, pageH := pdf.GetPageSize()
	if pdf.GetY()+h > pageH-pdfMarginBottom {
		size, _ := pdf.GetFontSize()
		r, g, b := pdf.GetFillColor()
		tr, tg, tb := pdf.GetTextColor()
		pdf.AddPage()
		onBreak()
		style := ""
		if isHeader {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, size)
		pdf.SetFillColor(r, g, b)
		pdf.SetTextColor(tr, tg, tb)
	}

	x0, y0 := pdf.GetXY()
	x := x0
	for i, c := range cols {
		pdf.Rect(x, y0, c.width, h, "FD")
		for j, ln := range lines[i] {
			pdf.SetXY(x+pdfCellPadX, y0+pdfCellPadY+float64(j)*pdfLineH)
			align := c.align
			if isHeader {
				align = "L"
			}
			pdf.CellFormat(c.width-2*pdfCellPadX, pdfLineH, ln, "", 0, align, false, 0, "")
		}
		x += c.width
	}
	pdf.SetXY(x0, y0+h)
}

// capLines keeps a cell within limit lines so a row always fits on one
// page. The last kept line is replaced by a count of what was dropped.
func (pw *PDFWriter) capLines(lines []string, limit int) []string {
	if len(lines) <= limit {
		return lines
	}
	hidden := len(lines) - (limit - 1)
	out := append([]string(nil), lines[:limit-1]...)
	return append(out, pw.tr("… +"+strconv.Itoa(hidden)+" more"))
}
