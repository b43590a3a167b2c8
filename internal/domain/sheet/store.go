package sheet

import (
	"context"
	"time"
)

const (
	Activities    = "Activities"
	Members       = "Members"
	Leaderboard   = "Leaderboard"
	ExecutionTime = "Execution Time"
)

// Store persists named tables of string cells, header row first.
type Store interface {
	// ReadAll returns the table, or an empty slice when the sheet is empty.
	ReadAll(ctx context.Context, sheet string) ([][]string, error)
	Clear(ctx context.Context, sheet string) error
	WriteAll(ctx context.Context, sheet string, rows [][]string) error
}

// Replace clears the sheet and writes rows in its place.
func Replace(ctx context.Context, store Store, sheet string, rows [][]string) error {
	if err := store.Clear(ctx, sheet); err != nil {
		return err
	}
	return store.WriteAll(ctx, sheet, rows)
}

// ExecutionStamp is the single-cell table recording when a sync finished.
func ExecutionStamp(at time.Time) [][]string {
	return [][]string{
		{"last_execution"},
		{at.Format("2006-01-02 15:04:05")},
	}
}
