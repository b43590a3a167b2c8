package week

import (
	"testing"
	"time"
)

func TestBucket_Wednesday(t *testing.T) {
	t.Parallel()

	wed := time.Date(2024, 7, 10, 15, 45, 0, 0, time.UTC)
	got := Bucket(wed)

	wantStart := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)
	if !got.Start.Equal(wantStart) || !got.End.Equal(wantEnd) {
		t.Fatalf("Bucket=%s..%s want %s..%s", got.Start, got.End, wantStart, wantEnd)
	}
	if got.Label() != "2024-07-08 to 2024-07-14" {
		t.Fatalf("unexpected label %q", got.Label())
	}
	if !got.Contains(wed) || got.Contains(wantEnd) {
		t.Fatalf("end must be exclusive")
	}
}

func TestBucket_EdgesOfWeek(t *testing.T) {
	t.Parallel()

	monday := time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, 7, 14, 23, 59, 59, 0, time.UTC)
	if !Bucket(monday).Start.Equal(monday) {
		t.Fatalf("monday must start its own week")
	}
	if !Bucket(sunday).Start.Equal(monday) {
		t.Fatalf("sunday must belong to the preceding monday")
	}
}

func TestCurrentWeekOffset(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	if got := CurrentWeekOffset(now, 0).Label(); got != "2024-01-01 to 2024-01-07" {
		t.Fatalf("current week label %q", got)
	}
	if got := CurrentWeekOffset(now, 1).Label(); got != "2023-12-25 to 2023-12-31" {
		t.Fatalf("previous week label %q", got)
	}
}

func TestParseLabel(t *testing.T) {
	t.Parallel()

	w, err := ParseLabel("2024-07-08 to 2024-07-14", time.UTC)
	if err != nil {
		t.Fatalf("ParseLabel unexpected error: %v", err)
	}
	if w.Label() != "2024-07-08 to 2024-07-14" {
		t.Fatalf("round trip mismatch: %q", w.Label())
	}
	if _, err := ParseLabel("2024-07-09 to 2024-07-15", time.UTC); err == nil {
		t.Fatalf("expected error for non-monday start")
	}
	if _, err := ParseLabel("garbage", time.UTC); err == nil {
		t.Fatalf("expected error for garbage label")
	}
}

func TestISOWeek(t *testing.T) {
	t.Parallel()

	d := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC) // belongs to 2020-W53
	if ISOWeek(d) != 53 {
		t.Fatalf("ISOWeek=%d want 53", ISOWeek(d))
	}
	if ISOLabel(d) != "2020-W53" {
		t.Fatalf("ISOLabel=%q", ISOLabel(d))
	}
}

func TestParseISOLabel(t *testing.T) {
	t.Parallel()

	year, n, err := ParseISOLabel("2024-W07")
	if err != nil || year != 2024 || n != 7 {
		t.Fatalf("ParseISOLabel = %d, %d, %v", year, n, err)
	}
	if _, _, err := ParseISOLabel("2024-W54"); err == nil {
		t.Fatalf("expected error for week 54")
	}
	if _, _, err := ParseISOLabel("week seven"); err == nil {
		t.Fatalf("expected error for garbage label")
	}
}
