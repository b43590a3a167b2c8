package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	qb "github.com/riskibarqy/club-scraper/internal/platform/querybuilder"
)

// insertBatchSize bounds the rows bound into one insert statement.
const insertBatchSize = 500

// Store keeps sheets as rows of a Postgres table, one JSON array of cells
// per sheet row. spreadsheetID namespaces the sheets so several
// spreadsheets can share a database.
type Store struct {
	db            *sqlx.DB
	spreadsheetID string
	now           func() time.Time
}

func NewStore(db *sqlx.DB, spreadsheetID string) *Store {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		spreadsheetID = "default"
	}
	return &Store{db: db, spreadsheetID: spreadsheetID, now: time.Now}
}

func (s *Store) ReadAll(ctx context.Context, sheet string) ([][]string, error) {
	query, args, err := qb.Select("spreadsheet_id", "sheet", "row_index", "cells", "updated_at").From(sheetRowsTable).
		Where(
			qb.Eq("spreadsheet_id", s.spreadsheetID),
			qb.Eq("sheet", sheet),
		).
		OrderBy("row_index").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select sheet rows query: %w", err)
	}

	var rows []sheetRowTableModel
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select sheet rows sheet=%s: %w", sheet, err)
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		// gaps left by partial writes read back as blank rows.
		for len(out) < row.RowIndex {
			out = append(out, []string{})
		}
		cells, err := decodeCells(row.Cells)
		if err != nil {
			return nil, fmt.Errorf("decode sheet row sheet=%s row=%d: %w", sheet, row.RowIndex, err)
		}
		out = append(out, cells)
	}

	return out, nil
}

func (s *Store) Clear(ctx context.Context, sheet string) error {
	query, args, err := clearQuery(s.spreadsheetID, sheet)
	if err != nil {
		return fmt.Errorf("build clear sheet query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear sheet=%s: %w", sheet, err)
	}
	return nil
}

// WriteAll upserts rows from the top of the sheet in one transaction.
func (s *Store) WriteAll(ctx context.Context, sheet string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	queries, err := upsertQueries(s.spreadsheetID, sheet, rows, s.now().UTC())
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx write sheet=%s: %w", sheet, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, q := range queries {
		if _, err := tx.ExecContext(ctx, q.sql, q.args...); err != nil {
			return fmt.Errorf("upsert sheet rows sheet=%s: %w", sheet, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit write sheet=%s tx: %w", sheet, err)
	}
	return nil
}

type boundQuery struct {
	sql  string
	args []any
}

func clearQuery(spreadsheetID, sheet string) (string, []any, error) {
	return qb.DeleteFrom(sheetRowsTable).
		Where(
			qb.Eq("spreadsheet_id", spreadsheetID),
			qb.Eq("sheet", sheet),
		).
		ToSQL()
}

func upsertQueries(spreadsheetID, sheet string, rows [][]string, at time.Time) ([]boundQuery, error) {
	out := make([]boundQuery, 0, len(rows)/insertBatchSize+1)
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))

		insert := qb.InsertInto(sheetRowsTable).
			Columns("spreadsheet_id", "sheet", "row_index", "cells", "updated_at")
		for i := start; i < end; i++ {
			cells, err := encodeCells(rows[i])
			if err != nil {
				return nil, fmt.Errorf("encode sheet row sheet=%s row=%d: %w", sheet, i, err)
			}
			insert.Values(spreadsheetID, sheet, i, cells, at)
		}
		insert.OnConflictUpdate([]string{"spreadsheet_id", "sheet", "row_index"}, "cells", "updated_at")

		query, args, err := insert.ToSQL()
		if err != nil {
			return nil, fmt.Errorf("build upsert sheet rows query: %w", err)
		}
		out = append(out, boundQuery{sql: query, args: args})
	}
	return out, nil
}

func encodeCells(cells []string) (string, error) {
	if cells == nil {
		cells = []string{}
	}
	encoded, err := sonic.Marshal(cells)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func decodeCells(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}, nil
	}
	var out []string
	if err := sonic.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}
