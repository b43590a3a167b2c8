package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestUpsertQueries_BatchesRows(t *testing.T) {
	t.Parallel()

	rows := make([][]string, insertBatchSize+2)
	for i := range rows {
		rows[i] = []string{"a", "b"}
	}
	at := time.Date(2024, 7, 10, 12, 0, 0, 0, time.UTC)

	queries, err := upsertQueries("book", "Activities", rows, at)
	if err != nil {
		t.Fatalf("upsertQueries unexpected error: %v", err)
	}
	if len(queries) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(queries))
	}
	if got := len(queries[0].args); got != insertBatchSize*5 {
		t.Fatalf("unexpected first batch arg count %d", got)
	}
	if got := len(queries[1].args); got != 2*5 {
		t.Fatalf("unexpected second batch arg count %d", got)
	}

	q := queries[1]
	if !strings.HasPrefix(q.sql, "INSERT INTO sheet_rows (spreadsheet_id, sheet, row_index, cells, updated_at) VALUES ($1, $2, $3, $4, $5), ($6") {
		t.Fatalf("unexpected insert sql: %s", q.sql)
	}
	if !strings.HasSuffix(q.sql, "ON CONFLICT (spreadsheet_id, sheet, row_index) DO UPDATE SET cells = EXCLUDED.cells, updated_at = EXCLUDED.updated_at") {
		t.Fatalf("unexpected conflict clause: %s", q.sql)
	}
	if diff := cmp.Diff([]any{"book", "Activities", insertBatchSize, `["a","b"]`, at}, q.args[:5]); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestClearQuery_ScopedToSheet(t *testing.T) {
	t.Parallel()

	query, args, err := clearQuery("book", "Members")
	if err != nil {
		t.Fatalf("clearQuery unexpected error: %v", err)
	}
	if query != "DELETE FROM sheet_rows WHERE spreadsheet_id = $1 AND sheet = $2" {
		t.Fatalf("unexpected delete sql: %s", query)
	}
	if diff := cmp.Diff([]any{"book", "Members"}, args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestCellsCodec(t *testing.T) {
	t.Parallel()

	encoded, err := encodeCells(nil)
	if err != nil || encoded != "[]" {
		t.Fatalf("encodeCells(nil) = %q, %v", encoded, err)
	}

	decoded, err := decodeCells(`["1","", "Kari \"K\""]`)
	if err != nil {
		t.Fatalf("decodeCells unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"1", "", `Kari "K"`}, decoded); diff != "" {
		t.Fatalf("cells mismatch (-want +got):\n%s", diff)
	}
	if _, err := decodeCells("{"); err == nil {
		t.Fatalf("expected error for malformed cells")
	}
}
