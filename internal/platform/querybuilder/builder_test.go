package querybuilder

import (
	"errors"
	"testing"
)

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("row_index", "cells").
		From("sheet_rows").
		Where(Eq("spreadsheet_id", "sp1"), Eq("sheet", "Activities")).
		OrderBy("row_index").
		ToSQL()
	if err != nil {
		t.Fatalf("build select: %v", err)
	}

	want := "SELECT row_index, cells FROM sheet_rows WHERE spreadsheet_id = $1 AND sheet = $2 ORDER BY row_index"
	if query != want {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", want, query)
	}
	if len(args) != 2 || args[0] != "sp1" || args[1] != "Activities" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder_MultiRowWithConflict(t *testing.T) {
	query, args, err := InsertInto("sheet_rows").
		Columns("sheet", "row_index", "cells").
		Values("Members", 0, "[]").
		Values("Members", 1, "[]").
		OnConflictUpdate([]string{"sheet", "row_index"}, "cells").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert: %v", err)
	}

	want := "INSERT INTO sheet_rows (sheet, row_index, cells) VALUES ($1, $2, $3), ($4, $5, $6) ON CONFLICT (sheet, row_index) DO UPDATE SET cells = EXCLUDED.cells"
	if query != want {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", want, query)
	}
	if len(args) != 6 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder_RejectsRaggedRows(t *testing.T) {
	_, _, err := InsertInto("t").Columns("a", "b").Values(1).ToSQL()
	if err == nil {
		t.Fatalf("expected ragged row error")
	}
}

func TestDeleteBuilder_RequiresWhere(t *testing.T) {
	_, _, err := DeleteFrom("sheet_rows").ToSQL()
	if !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}

	query, args, err := DeleteFrom("sheet_rows").Where(Eq("sheet", "Leaderboard")).ToSQL()
	if err != nil {
		t.Fatalf("build delete: %v", err)
	}
	if query != "DELETE FROM sheet_rows WHERE sheet = $1" || len(args) != 1 {
		t.Fatalf("unexpected delete: %s %+v", query, args)
	}
}

func TestCompact(t *testing.T) {
	got := Compact(" SELECT   *\nFROM sheet_rows \t WHERE sheet = $1 ", 0)
	want := "SELECT * FROM sheet_rows WHERE sheet = $1"
	if got != want {
		t.Fatalf("unexpected compact query: %q", got)
	}

	if got := Compact("SELECT row_index FROM sheet_rows", 6); got != "SELECT..." {
		t.Fatalf("unexpected truncated query: %q", got)
	}
}
