package tables

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"loglens/pkg/contracts/domain"
)

// SheetsSource loads tables from a Google Sheets spreadsheet. Teams that
// triage in shared sheets can point an analysis run straight at them
// instead of exporting CSV first.
type SheetsSource struct {
	service *sheets.Service
	logger  *slog.Logger
}

// NewSheetsSource builds a source authenticated with an API key
func NewSheetsSource(ctx context.Context, apiKey string, logger *slog.Logger) (*SheetsSource, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("sheets source requires an api key")
	}
	if logger == nil {
		logger = slog.Default()
	}

	service, err := sheets.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsSource{service: service, logger: logger}, nil
}

// Load fetches a range (e.g. "Events!A1:Z") and returns it as a table.
// The first row of the range is the header.
func (s *SheetsSource) Load(ctx context.Context, spreadsheetID, readRange string) (*domain.Table, error) {
	resp, err := s.service.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read spreadsheet range %q: %w", readRange, err)
	}
	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("spreadsheet range %q is empty", readRange)
	}

	header := make([]string, len(resp.Values[0]))
	for i, cell := range resp.Values[0] {
		header[i] = fmt.Sprint(cell)
	}

	rows := make([][]string, 0, len(resp.Values)-1)
	for _, raw := range resp.Values[1:] {
		record := make([]string, len(raw))
		for i, cell := range raw {
			record[i] = fmt.Sprint(cell)
		}
		rows = append(rows, padRow(record, len(header)))
	}

	s.logger.InfoContext(ctx, "loaded spreadsheet range",
		slog.String("spreadsheet_id", spreadsheetID),
		slog.String("range", readRange),
		slog.Int("rows", len(rows)))

	return buildTable(spreadsheetID, "sheets://"+spreadsheetID+"/"+readRange, header, rows), nil
}
