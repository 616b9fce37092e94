package table

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsStore implements Store over the Google Sheets API.
type SheetsStore struct {
	svc     *sheets.Service
	sheetID string
	tab     string
}

// NewSheetsStore creates a Sheets-backed store. When credentialsFile is
// empty, application default credentials are used.
func NewSheetsStore(ctx context.Context, sheetID, tab, credentialsFile string) (*SheetsStore, error) {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsStore{svc: svc, sheetID: sheetID, tab: tab}, nil
}

// Values returns every row of the tab, header included.
func (s *SheetsStore) Values(ctx context.Context) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.sheetID, s.tab).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get values: %w", err)
	}

	rows := make([][]string, len(resp.Values))
	for i, raw := range resp.Values {
		row := make([]string, len(raw))
		for j, cell := range raw {
			row[j] = fmt.Sprint(cell)
		}
		rows[i] = row
	}
	return rows, nil
}

// Append appends rows after the last used row of the tab.
func (s *SheetsStore) Append(ctx context.Context, rows [][]string) error {
	values := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		values[i] = cells
	}

	_, err := s.svc.Spreadsheets.Values.
		Append(s.sheetID, s.tab, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append values: %w", err)
	}
	return nil
}

// BatchUpdate applies single-cell writes in one API call.
func (s *SheetsStore) BatchUpdate(ctx context.Context, updates []CellUpdate) error {
	data := make([]*sheets.ValueRange, len(updates))
	for i, u := range updates {
		data[i] = &sheets.ValueRange{
			Range:  fmt.Sprintf("%s!%s%d", s.tab, columnLetter(u.Col), u.Row),
			Values: [][]any{{u.Value}},
		}
	}

	_, err := s.svc.Spreadsheets.Values.
		BatchUpdate(s.sheetID, &sheets.BatchUpdateValuesRequest{
			ValueInputOption: "RAW",
			Data:             data,
		}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("batch update values: %w", err)
	}
	return nil
}

// columnLetter converts a 1-based column index to A1 notation letters.
func columnLetter(col int) string {
	letters := ""
	for col > 0 {
		col--
		letters = string(rune('A'+col%26)) + letters
		col /= 26
	}
	return letters
}
