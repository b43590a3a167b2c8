package record

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/riskibarqy/club-scraper/internal/domain/fieldparse"
)

func TestCanonicalLabel(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Moving Time":     "moving_time",
		"Avg. Speed":      "avg_speed",
		"Elev. Gain":      "elev_gain",
		" Heart-Rate ":    "heart_rate",
		"km/h":            "km_h",
		"Calories (kcal)": "calories_kcal",
		"__Rank__":        "rank",
		"Max  Speed":      "max_speed",
	}
	for raw, want := range cases {
		if got := CanonicalLabel(raw); got != want {
			t.Fatalf("CanonicalLabel(%q)=%q want=%q", raw, got, want)
		}
	}
}

func TestFromTokens(t *testing.T) {
	t.Parallel()

	pairs, leftover := FromTokens([]string{"12.3 km", "Distance", "1:02:03", "Moving Time", "Show Less"}, ValueFirst)
	want := []Pair{
		{Label: "Distance", Value: "12.3 km"},
		{Label: "Moving Time", Value: "1:02:03"},
	}
	if diff := cmp.Diff(want, pairs); diff != "" {
		t.Fatalf("pairs mismatch (-want +got):\n%s", diff)
	}
	if leftover != "Show Less" {
		t.Fatalf("unexpected leftover %q", leftover)
	}

	pairs, leftover = FromTokens([]string{"Calories", "1,021"}, LabelFirst)
	if len(pairs) != 1 || pairs[0].Value != "1,021" || leftover != "" {
		t.Fatalf("unexpected label-first pairing: %+v %q", pairs, leftover)
	}
}

func TestDecoder_DropsOnlyTheBadField(t *testing.T) {
	t.Parallel()

	bag := NewBag([]Pair{
		{Label: "Distance", Value: "12.3 km"},
		{Label: "Elevation", Value: "lots"},
		{Label: "Calories", Value: "—"},
		{Label: "Relative Effort", Value: "41"},
	}, Aliases{"elevation": "elevation_gain"})

	d := NewDecoder(bag)
	distance := d.Float("distance", fieldparse.Distance)
	elevation := d.Float("elevation_gain", fieldparse.Elevation)
	calories := d.Float("calories", fieldparse.Number)
	power := d.Float("power", fieldparse.Number)

	if distance == nil || *distance != 12300 {
		t.Fatalf("unexpected distance %v", distance)
	}
	if elevation != nil || calories != nil || power != nil {
		t.Fatalf("expected bad, null and missing fields to be nil")
	}

	errs := d.Errors()
	if len(errs) != 1 || errs[0].Field != "elevation_gain" || errs[0].Raw != "lots" {
		t.Fatalf("expected exactly one field error for elevation, got %+v", errs)
	}
	if !errors.Is(errs[0], fieldparse.ErrUnparseable) {
		t.Fatalf("field error should unwrap to ErrUnparseable: %v", errs[0])
	}

	unknown := bag.Unknown(Known("distance", "elevation_gain", "calories"))
	if diff := cmp.Diff(map[string]string{"Relative Effort": "41"}, unknown); diff != "" {
		t.Fatalf("unknown labels mismatch (-want +got):\n%s", diff)
	}
}

func TestAliasesMerge(t *testing.T) {
	t.Parallel()

	base := Aliases{"athlete": "athlete_name", "time": "moving_time"}
	merged := base.Merge(Aliases{"time": "elapsed_time", "rides": "activities"})
	if merged["time"] != "elapsed_time" || merged["rides"] != "activities" || merged["athlete"] != "athlete_name" {
		t.Fatalf("unexpected merge: %+v", merged)
	}
	if base["time"] != "moving_time" {
		t.Fatalf("merge must not mutate the receiver")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	type sample struct {
		ClubID   string   `validate:"required"`
		Distance *float64 `validate:"omitempty,gte=0"`
	}
	neg := -1.0
	err := Validate(sample{Distance: &neg})
	if !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
	if err := Validate(sample{ClubID: "1"}); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}
}
