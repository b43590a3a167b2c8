package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/riskibarqy/club-scraper/internal/domain/dataset"
	"github.com/riskibarqy/club-scraper/internal/domain/leaderboard"
	"github.com/riskibarqy/club-scraper/internal/domain/week"
	"github.com/riskibarqy/club-scraper/internal/platform/logging"
)

type memoryResults struct {
	results map[string]leaderboard.WeeklyResult
	saves   int
}

func (m *memoryResults) Load(context.Context) (map[string]leaderboard.WeeklyResult, error) {
	out := make(map[string]leaderboard.WeeklyResult, len(m.results))
	for k, v := range m.results {
		out[k] = v
	}
	return out, nil
}

func (m *memoryResults) Save(_ context.Context, results map[string]leaderboard.WeeklyResult) error {
	m.results = results
	m.saves++
	return nil
}

func boardRow(w week.Week, athleteID, name string, rank int64, moving int64) leaderboard.Row {
	distance := 50000.0
	return leaderboard.Row{
		ClubID:          "100",
		LeaderboardWeek: w.Label(),
		DateStart:       w.Start,
		DateEnd:         w.LastDay(),
		Rank:            rank,
		AthleteID:       athleteID,
		AthleteName:     name,
		Activities:      2,
		MovingTime:      &moving,
		Distance:        &distance,
	}
}

func newTestReportService(rows []leaderboard.Row, results *memoryResults) *ReportService {
	store := newTableStore()
	store.tables[leaderboard.DatasetName] = dataset.Encode(leaderboard.Schema(), rows)
	svc := NewReportService(store, results, time.UTC, logging.NewNop())
	svc.now = func() time.Time { return syncNow }
	return svc
}

func TestReportService_UpdateResults_UpsertsByWeekAndAthlete(t *testing.T) {
	t.Parallel()

	current := week.Bucket(syncNow)
	results := &memoryResults{results: map[string]leaderboard.WeeklyResult{
		"2024-W28-42": {Week: "2024-W28", AthleteID: "42", AthleteName: "stale", Rank: 9},
		"2023-W01-7":  {Week: "2023-W01", AthleteID: "7", AthleteName: "Old"},
	}}
	svc := newTestReportService([]leaderboard.Row{
		boardRow(current, "42", "Kari", 1, 200*60),
	}, results)

	n, err := svc.UpdateResults(context.Background())
	if err != nil {
		t.Fatalf("UpdateResults unexpected error: %v", err)
	}
	if n != 1 || results.saves != 1 {
		t.Fatalf("unexpected upsert count=%d saves=%d", n, results.saves)
	}

	want := leaderboard.WeeklyResult{
		Week:        "2024-W28",
		AthleteID:   "42",
		AthleteName: "Kari",
		Rank:        1,
		Activities:  2,
		MovingTime:  200 * 60,
		Distance:    50000,
		Tickets:     1,
	}
	if diff := cmp.Diff(want, results.results["2024-W28-42"]); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	if _, ok := results.results["2023-W01-7"]; !ok {
		t.Fatalf("unrelated result was dropped")
	}
}

func TestReportService_Build(t *testing.T) {
	t.Parallel()

	current := week.Bucket(syncNow)
	previous := current.Shift(-1)
	results := &memoryResults{}
	svc := newTestReportService([]leaderboard.Row{
		boardRow(previous, "43", "Ola", 1, 320*60),
		boardRow(previous, "42", "Kari", 2, 100*60),
		boardRow(current, "42", "Kari", 1, 310*60),
		boardRow(current, "43", "Ola", 2, 160*60),
		boardRow(current, "44", "Per", 3, 10*60),
	}, results)

	if _, err := svc.UpdateResults(context.Background()); err != nil {
		t.Fatalf("UpdateResults unexpected error: %v", err)
	}
	report, err := svc.Build(context.Background())
	if err != nil {
		t.Fatalf("Build unexpected error: %v", err)
	}

	if report.CurrentWeek != "2024-W28" || report.PreviousWeek != "2024-W27" {
		t.Fatalf("unexpected weeks %s / %s", report.CurrentWeek, report.PreviousWeek)
	}
	if diff := cmp.Diff([]string{"Kari", "Ola", "Per"}, names(report.Current)); diff != "" {
		t.Fatalf("current order mismatch (-want +got):\n%s", diff)
	}
	wantDeltas := []leaderboard.Delta{
		{AthleteName: "Kari", Change: leaderboard.Up},
		{AthleteName: "Ola", Change: leaderboard.Down},
		{AthleteName: "Per", Change: leaderboard.New},
	}
	if diff := cmp.Diff(wantDeltas, report.Deltas); diff != "" {
		t.Fatalf("deltas mismatch (-want +got):\n%s", diff)
	}

	wantSummary := []leaderboard.AthleteSummary{
		{AthleteName: "Ola", Weeks: 2, Activities: 4, Distance: 100000, MovingTime: 480 * 60, Tickets: 3},
		{AthleteName: "Kari", Weeks: 2, Activities: 4, Distance: 100000, MovingTime: 410 * 60, Tickets: 2},
		{AthleteName: "Per", Weeks: 1, Activities: 2, Distance: 50000, MovingTime: 10 * 60},
	}
	if diff := cmp.Diff(wantSummary, report.Summary); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	report := Report{
		CurrentWeek:  "2024-W28",
		PreviousWeek: "2024-W27",
		Current: []leaderboard.WeeklyResult{
			{Week: "2024-W28", AthleteName: "Kari", Rank: 1, Activities: 3, MovingTime: 3900, Distance: 42500, Tickets: 0},
			{Week: "2024-W28", AthleteName: "Per", Rank: leaderboard.RankUnranked, Activities: 1},
		},
		Summary: []leaderboard.AthleteSummary{{AthleteName: "Kari", Weeks: 1, Activities: 3}},
		Deltas:  []leaderboard.Delta{{AthleteName: "Kari", Change: leaderboard.Up}},
	}

	text, err := Render(report, ReportFormatText)
	if err != nil {
		t.Fatalf("Render text unexpected error: %v", err)
	}
	for _, want := range []string{"Week 2024-W28", "Week 2024-W27", "Totals", "Kari", "1h 05m", "42.5", "▲"} {
		if !strings.Contains(text, want) {
			t.Fatalf("text report missing %q:\n%s", want, text)
		}
	}

	md, err := Render(report, ReportFormatMarkdown)
	if err != nil {
		t.Fatalf("Render markdown unexpected error: %v", err)
	}
	if !strings.HasPrefix(md, "## Week 2024-W28") || !strings.Contains(md, "## Totals") {
		t.Fatalf("unexpected markdown report:\n%s", md)
	}

	if _, err := Render(report, ReportFormat("html")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestParseReportFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    ReportFormat
		wantErr bool
	}{
		{in: "", want: ReportFormatText},
		{in: "TEXT", want: ReportFormatText},
		{in: "md", want: ReportFormatMarkdown},
		{in: "markdown", want: ReportFormatMarkdown},
		{in: "pdf", wantErr: true},
	}
	for _, tc := range tests {
		got, err := ParseReportFormat(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("ParseReportFormat(%q) expected ErrInvalidInput, got %v", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ParseReportFormat(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}
