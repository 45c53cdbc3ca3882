package domain

import (
	"time"
)

// ReportKind names the analysis artifact a report file carries
type ReportKind string

const (
	ReportKindProfiles   ReportKind = "profiles"
	ReportKindEntityMap  ReportKind = "entity_map"
	ReportKindSignatures ReportKind = "signatures"
	ReportKindAnomalies  ReportKind = "anomalies"
	ReportKindReduction  ReportKind = "reduction"
	ReportKindWorkbook   ReportKind = "workbook"
)

// ReportFormat defines the on-disk format of a report
type ReportFormat string

const (
	ReportFormatCSV   ReportFormat = "csv"
	ReportFormatJSON  ReportFormat = "json"
	ReportFormatExcel ReportFormat = "xlsx"
)

// ReportFile describes a generated report on disk
type ReportFile struct {
	Name        string       `json:"name"`
	Path        string       `json:"path"`
	Kind        ReportKind   `json:"kind"`
	Format      ReportFormat `json:"format"`
	Size        int64        `json:"size"`
	Dataset     string       `json:"dataset,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
}
