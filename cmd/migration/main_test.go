package main

import (
	"testing"
)

func TestParseSteps(t *testing.T) {
	t.Parallel()

	cases := []struct {
		args    []string
		want    int
		wantErr bool
	}{
		{args: nil, want: 1},
		{args: []string{"3"}, want: 3},
		{args: []string{"0"}, wantErr: true},
		{args: []string{"x"}, wantErr: true},
	}
	for _, tc := range cases {
		got, err := parseSteps(tc.args)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseSteps(%v): expected error", tc.args)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseSteps(%v) error: %v", tc.args, err)
		}
		if got != tc.want {
			t.Fatalf("parseSteps(%v)=%d want %d", tc.args, got, tc.want)
		}
	}
}

func TestParseVersionRejectsNegative(t *testing.T) {
	t.Parallel()

	if _, err := parseVersion("-1"); err == nil {
		t.Fatalf("expected error for negative version")
	}
	got, err := parseVersion("1760140800")
	if err != nil {
		t.Fatalf("parseVersion error: %v", err)
	}
	if got != 1760140800 {
		t.Fatalf("unexpected version %d", got)
	}
}

func TestNormalizeDBURL_AddsPreparedBinaryFlag(t *testing.T) {
	t.Setenv("DB_DISABLE_PREPARED_BINARY_RESULT", "true")

	got := normalizeDBURL("postgres://u:p@localhost:5432/club_scraper?sslmode=disable")
	want := "postgres://u:p@localhost:5432/club_scraper?disable_prepared_binary_result=yes&sslmode=disable"
	if got != want {
		t.Fatalf("normalizeDBURL=%q want %q", got, want)
	}
}
