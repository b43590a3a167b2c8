package postgres

import "time"

const sheetRowsTable = "sheet_rows"

type sheetRowTableModel struct {
	SpreadsheetID string    `db:"spreadsheet_id"`
	Sheet         string    `db:"sheet"`
	RowIndex      int       `db:"row_index"`
	Cells         string    `db:"cells"`
	UpdatedAt     time.Time `db:"updated_at"`
}
