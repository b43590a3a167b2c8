package dataset

import (
	"strings"
	"time"
)

// Decode reads a stored table, header row first, into typed rows. Rows that
// are entirely blank are skipped. Columns absent from the header read as
// null. Any row that fails to decode aborts with ErrStoredRowInvalid.
func Decode[T any](schema Schema[T], table [][]string, loc *time.Location) ([]T, error) {
	if len(table) == 0 {
		return nil, nil
	}
	header := table[0]
	rows := make([]T, 0, len(table)-1)
	for i, raw := range table[1:] {
		if blank(raw) {
			continue
		}
		row, err := schema.Decode(NewCells(header, raw, loc))
		if err != nil {
			// +2: one for the header, one for 1-based sheet rows.
			return nil, &StoredRowError{Dataset: schema.Name, Row: i + 2, Err: err}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Encode renders rows under the schema's header. Every row has exactly
// len(Columns) cells.
func Encode[T any](schema Schema[T], rows []T) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, append([]string(nil), schema.Columns...))
	for _, row := range rows {
		cells := schema.Encode(row)
		line := make([]string, len(schema.Columns))
		copy(line, cells)
		out = append(out, line)
	}
	return out
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
