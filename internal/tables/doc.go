// Package tables loads security log exports into in-memory tables and
// profiles their shape.
//
// A dataset is a directory of CSV or XLSX files (one table each), or an
// optional Google Sheets range. Every loader normalizes the result into
// domain.Table: a header row plus row-major string cells with short rows
// padded out to the header width. Cells keep their ingested text form so
// the analysis engines decide how to interpret them.
//
// Profiling follows the blank/filled grouping approach: rows are grouped
// by which columns they populate, and the ratio of sometimes-populated to
// always-populated columns classifies the table as variable or constant.
package tables
