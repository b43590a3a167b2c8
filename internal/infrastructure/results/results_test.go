package results

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/go-cmp/cmp"

	"github.com/riskibarqy/club-scraper/internal/domain/leaderboard"
)

func sampleResults() map[string]leaderboard.WeeklyResult {
	return map[string]leaderboard.WeeklyResult{
		"2024-W28-42": {Week: "2024-W28", AthleteID: "42", AthleteName: "Kari", Rank: 1, Activities: 3, MovingTime: 18600, Distance: 92000, ElevationGain: 640, Tickets: 2},
		"2024-W27-43": {Week: "2024-W27", AthleteID: "43", AthleteName: "Ola", Rank: 2, Activities: 1, MovingTime: 3600, Distance: 30000},
	}
}

func TestFileRepository_SaveLoad(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "results.json")
	repo := NewFileRepository(path)

	empty, err := repo.Load(ctx)
	if err != nil || len(empty) != 0 {
		t.Fatalf("Load of missing file = %v, %v", empty, err)
	}

	want := sampleResults()
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save unexpected error: %v", err)
	}
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load unexpected error: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("results mismatch (-want +got):\n%s", diff)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read results file: %v", err)
	}
	var decoded map[string]map[string]any
	if err := sonic.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("results file is not a json object: %v", err)
	}
	if n, ok := decoded["2024-W28-42"]["week_number"].(float64); !ok || n != 28 {
		t.Fatalf("expected week_number 28, got %v", decoded["2024-W28-42"]["week_number"])
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read results dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestFileRepository_LoadMalformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := NewFileRepository(path).Load(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestUpsertResultsQueries(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 7, 10, 12, 0, 0, 0, time.UTC)
	queries, err := upsertResultsQueries(sampleResults(), at)
	if err != nil {
		t.Fatalf("upsertResultsQueries unexpected error: %v", err)
	}
	if len(queries) != 1 {
		t.Fatalf("expected one batch, got %d", len(queries))
	}
	q := queries[0]
	if !strings.Contains(q.sql, "ON CONFLICT (result_key) DO UPDATE SET iso_week = EXCLUDED.iso_week") {
		t.Fatalf("unexpected conflict clause: %s", q.sql)
	}
	if len(q.args) != 2*len(weeklyResultColumns) {
		t.Fatalf("unexpected arg count %d", len(q.args))
	}
	// keys are bound in sorted order.
	if q.args[0] != "2024-W27-43" || q.args[len(weeklyResultColumns)] != "2024-W28-42" {
		t.Fatalf("unexpected key order: %v %v", q.args[0], q.args[len(weeklyResultColumns)])
	}

	none, err := upsertResultsQueries(nil, at)
	if err != nil || len(none) != 0 {
		t.Fatalf("empty results = %v, %v", none, err)
	}
}
