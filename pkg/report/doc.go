// Package report assembles classified policy records into audit report
// sections.
//
// The package is organized by logical concern across multiple files:
//
// # Sections and Summary (report.go)
//
// Report, Section, Summary, Meta and Build. Sections are independent views
// over the classified set ("with traffic", "no traffic", "potentially
// permissive"), each ordered by policy id; a record may appear in more than
// one. Summary counts are computed once over the full set.
//
// # Display Formatting (display.go)
//
// DisplayTime and DisplayCount produce the compact forms used by the table
// and document renderers. They never alter stored record values.
//
// # Merged CSV Input (csvread.go)
//
// FromMergedCSV reads back a merged record table written by an earlier run,
// so the document can be regenerated without contacting the appliance.
package report
