// Package exporter writes analysis artifacts to disk.
//
// This package contains two main components:
//
// CSVWriter: Core CSV writing functionality with support for headers,
// streaming, and UTF-8 BOM for Excel compatibility.
//
// ReportWriter: Renders profiles, reduction reports, signature censuses,
// entity maps and anomaly results as dated CSV/JSON report files, and
// consolidates a full analysis run into a single XLSX workbook.
//
// Example usage:
//
//	writer := exporter.NewReportWriter(paths, logger)
//
//	path, err := writer.WriteProfiles(profiles, time.Now())
//
//	wb, err := writer.WriteWorkbook(exporter.WorkbookContent{
//		Dataset:  "prod_logs",
//		Profiles: profiles,
//	}, time.Now())
package exporter
