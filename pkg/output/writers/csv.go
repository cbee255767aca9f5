// Package writers renders policy records and audit reports to the output
// formats the tool supports: terminal tables, CSV, JSON, XLSX and PDF.
package writers

import (
	"encoding/csv"
	"fmt"
	"io"
	"sync"

	"github.com/policyaudit/policyaudit/pkg/policy"
)

// CSVWriter writes records as CSV rows under a fixed header.
// The writer is safe for concurrent use.
type CSVWriter struct {
	w         io.Writer
	csvWriter *csv.Writer
	mu        sync.Mutex
	headers   []string
	opts      CSVOptions
}

// CSVOptions configures the CSV writer behavior.
type CSVOptions struct {
	// IncludeHeader writes the column names as the first row.
	IncludeHeader bool
}

// DefaultCSVOptions returns the options used for pipeline tables: a header
// row and values exactly as rendered, so the merged table reads back.
// Values are never escaped for spreadsheets; a leading '=' in a policy
// name is data.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{IncludeHeader: true}
}

// NewCSVWriter creates a CSV writer for the given columns. The header row
// is written immediately; a table with no records is still a valid file.
func NewCSVWriter(w io.Writer, headers []string, opts CSVOptions) *CSVWriter {
	csvWriter := csv.NewWriter(w)
	cw := &CSVWriter{
		w:         w,
		csvWriter: csvWriter,
		headers:   headers,
		opts:      opts,
	}
	if opts.IncludeHeader {
		_ = csvWriter.Write(headers)
	}
	return cw
}

// Write renders one record as a row.
func (cw *CSVWriter) Write(r policy.Row) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.writeLocked(r)
}

// WriteAll renders every record in order.
func (cw *CSVWriter) WriteAll(rows []policy.Row) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	for _, r := range rows {
		if err := cw.writeLocked(r); err != nil {
			return err
		}
	}
	return nil
}

func (cw *CSVWriter) writeLocked(r policy.Row) error {
	row := make([]string, len(cw.headers))
	for i, h := range cw.headers {
		row[i] = r.Field(h)
	}
	return cw.csvWriter.Write(row)
}

// Flush flushes the CSV writer's internal buffer.
func (cw *CSVWriter) Flush() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	cw.csvWriter.Flush()
	return cw.csvWriter.Error()
}

// Close flushes the CSV writer. If the underlying writer implements
// io.Closer, it will be closed.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.csvWriter.Flush()
	if err := cw.csvWriter.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	if closer, ok := cw.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
