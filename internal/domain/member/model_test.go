package member

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/riskibarqy/club-scraper/internal/domain/club"
	"github.com/riskibarqy/club-scraper/internal/domain/dataset"
	"github.com/riskibarqy/club-scraper/internal/domain/record"
)

func str(s string) *string { return &s }

func TestAssemble(t *testing.T) {
	t.Parallel()

	observed := time.Date(2024, 3, 5, 21, 14, 0, 0, time.UTC)
	c := club.Club{ID: "100", Name: "Riders", ActivityType: club.Cycling, Location: "Oslo"}
	raw := record.Raw{
		ClubID: "100",
		Pairs: []record.Pair{
			{Label: "Athlete URL", Value: "https://www.strava.com/athletes/42"},
			{Label: "Name", Value: " Kari Nordmann "},
			{Label: "Location", Value: "Bergen, Vestland"},
			{Label: "Avatar", Value: "https://img/42.jpg"},
			{Label: "Badge", Value: "Subscriber"},
		},
	}

	got, err := Assemble(raw, c, observed, Teams{"42": "Blue"})
	if err != nil {
		t.Fatalf("Assemble unexpected error: %v", err)
	}
	want := Member{
		ClubID:           "100",
		ClubName:         "Riders",
		ClubLocation:     "Oslo",
		ClubActivityType: "Cycling",
		AthleteID:        "42",
		AthleteName:      "Kari Nordmann",
		AthleteLocation:  str("Bergen, Vestland"),
		JoinDate:         time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		AthleteTeam:      str("Blue"),
		AthletePicture:   str("https://img/42.jpg"),
	}
	if diff := cmp.Diff(want, got.Record); diff != "" {
		t.Fatalf("member mismatch (-want +got):\n%s", diff)
	}
	if got.Unknown["Badge"] != "Subscriber" {
		t.Fatalf("expected unknown label retained, got %+v", got.Unknown)
	}
}

func TestAssemble_MissingAthleteIDIsInvalid(t *testing.T) {
	t.Parallel()

	raw := record.Raw{ClubID: "100", Pairs: []record.Pair{{Label: "Name", Value: "Nobody"}}}
	_, err := Assemble(raw, club.Club{ID: "100"}, time.Now(), nil)
	if !errors.Is(err, record.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
}

func TestSchema_RoundTripAndMonotonicMerge(t *testing.T) {
	t.Parallel()

	stored := []Member{
		{ClubID: "100", AthleteID: "7", AthleteName: "A", JoinDate: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
			AthleteLocation: str("Oslo"), AthleteLocationCountry: str("Norway"), AthleteLocationCountryCode: str("no")},
		{ClubID: "100", AthleteID: "12", AthleteName: "B", JoinDate: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)},
	}
	schema := Schema()

	table := dataset.Encode(schema, stored)
	decoded, err := dataset.Decode(schema, table, time.UTC)
	if err != nil {
		t.Fatalf("Decode unexpected error: %v", err)
	}
	if diff := cmp.Diff(stored, decoded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	rescrape := []Member{
		{ClubID: "100", AthleteID: "7", AthleteName: "A renamed", JoinDate: time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)},
	}
	merged, err := dataset.Merge(schema, decoded, rescrape)
	if err != nil {
		t.Fatalf("Merge unexpected error: %v", err)
	}
	if diff := cmp.Diff(stored, merged); diff != "" {
		t.Fatalf("existing members must be carried forward untouched (-want +got):\n%s", diff)
	}
}

func TestRosterAndPrefer(t *testing.T) {
	t.Parallel()

	r := NewRoster([]Member{{ClubID: "1", AthleteID: "2", AthleteTeam: str("Red")}})
	p, ok := r[Key("1", "2")]
	if !ok || p.Team == nil || *p.Team != "Red" {
		t.Fatalf("unexpected roster lookup %+v ok=%v", p, ok)
	}
	if got := Prefer(nil, str("stale")); got == nil || *got != "stale" {
		t.Fatalf("expected stale fallback")
	}
	if got := Prefer(str(""), str("stale")); *got != "stale" {
		t.Fatalf("empty fresh value must fall back")
	}
	if got := Prefer(str("fresh"), str("stale")); *got != "fresh" {
		t.Fatalf("expected fresh value")
	}
}

func TestWithCountry(t *testing.T) {
	t.Parallel()

	m := Member{AthleteLocation: str("Oslo")}
	if !m.NeedsGeocoding() {
		t.Fatalf("expected member to need geocoding")
	}
	m = m.WithCountry("Norway", "NO")
	if m.NeedsGeocoding() || *m.AthleteLocationCountryCode != "no" {
		t.Fatalf("unexpected geocoded member %+v", m)
	}
}
