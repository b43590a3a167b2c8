package activity

import (
	"strings"
	"time"

	"github.com/riskibarqy/club-scraper/internal/domain/fieldparse"
	"github.com/riskibarqy/club-scraper/internal/domain/record"
)

// Activity is one scraped activity page. Optional metrics are nil when the
// page did not show them or they failed to parse. ActivityDate is zero when
// the date text could not be read.
type Activity struct {
	ClubID              string `validate:"required"`
	ActivityDate        time.Time
	AthleteID           string `validate:"omitempty,numeric"`
	AthleteName         string
	ActivityType        string
	ActivityID          string `validate:"required,numeric"`
	ActivityName        *string
	ActivityDescription *string
	ActivityLocation    *string
	Commute             *bool

	ElapsedTime   *int64   `validate:"omitempty,gte=0"`
	MovingTime    *int64   `validate:"omitempty,gte=0"`
	Distance      *float64 `validate:"omitempty,gte=0"`
	MaxSpeed      *float64 `validate:"omitempty,gte=0"`
	AverageSpeed  *float64 `validate:"omitempty,gte=0"`
	ElevationGain *float64 `validate:"omitempty,gte=0"`
	Pace          *int64   `validate:"omitempty,gte=0"`
	HeartRate     *float64 `validate:"omitempty,gte=0"`
	Cadence       *float64 `validate:"omitempty,gte=0"`
	Power         *float64 `validate:"omitempty,gte=0"`
	Calories      *float64 `validate:"omitempty,gte=0"`
	Steps         *float64 `validate:"omitempty,gte=0"`
	Temperature   *float64

	ActivityDevice *string
	ActivityKudos  int64 `validate:"gte=0"`

	AthleteLocation *string
	AthleteTeam     *string
	AthletePicture  *string
}

var Columns = []string{
	"club_id",
	"activity_date",
	"athlete_id",
	"athlete_name",
	"activity_type",
	"activity_id",
	"activity_name",
	"activity_description",
	"activity_location",
	"commute",
	"elapsed_time",
	"moving_time",
	"distance",
	"max_speed",
	"average_speed",
	"elevation_gain",
	"pace",
	"heart_rate",
	"cadence",
	"power",
	"calories",
	"steps",
	"temperature",
	"activity_device",
	"activity_kudos",
	"athlete_location",
	"athlete_team",
	"athlete_picture",
}

var aliases = record.Aliases{
	"athlete":            "athlete_name",
	"athlete_url":        "athlete_href",
	"type":               "activity_type",
	"date":               "activity_date",
	"name":               "activity_name",
	"title":              "activity_name",
	"description":        "activity_description",
	"location":           "activity_location",
	"device":             "activity_device",
	"kudos":              "activity_kudos",
	"kudos_count":        "activity_kudos",
	"time":               "moving_time",
	"elevation":          "elevation_gain",
	"elev_gain":          "elevation_gain",
	"speed":              "average_speed",
	"avg_speed":          "average_speed",
	"avg_pace":           "pace",
	"avg_heart_rate":     "heart_rate",
	"avg_cadence":        "cadence",
	"avg_power":          "power",
	"weighted_avg_power": "power",
	"total_steps":        "steps",
}

var known = record.Known(append([]string{"athlete_href"}, Columns...)...)

// Assemble builds an activity from one scraped page. Relative dates such as
// "Today at 5:30 PM" resolve against now. A field that fails to parse is
// reported in the assembly and left nil; the record is still returned.
func Assemble(raw record.Raw, now time.Time) (record.Assembly[Activity], error) {
	bag := record.NewBag(raw.Pairs, aliases)
	d := record.NewDecoder(bag)

	a := Activity{
		ClubID:              raw.ClubID,
		ActivityID:          raw.EntityID,
		AthleteID:           d.ID("athlete_id", fieldparse.AthleteID),
		AthleteName:         d.String("athlete_name"),
		ActivityType:        d.String("activity_type"),
		ActivityName:        d.Text("activity_name"),
		ActivityDescription: d.Text("activity_description"),
		ActivityLocation:    d.Text("activity_location"),
		Commute:             commute(d.Text("commute")),

		ElapsedTime:   d.Int("elapsed_time", fieldparse.Duration),
		MovingTime:    d.Int("moving_time", fieldparse.Duration),
		Distance:      d.Float("distance", fieldparse.Distance),
		MaxSpeed:      d.Float("max_speed", fieldparse.Speed),
		AverageSpeed:  d.Float("average_speed", fieldparse.Speed),
		ElevationGain: d.Float("elevation_gain", fieldparse.Elevation),
		Pace:          d.Int("pace", fieldparse.Pace),
		HeartRate:     d.Float("heart_rate", fieldparse.Number),
		Cadence:       d.Float("cadence", fieldparse.Number),
		Power:         d.Float("power", fieldparse.Number),
		Calories:      d.Float("calories", fieldparse.Number),
		Steps:         d.Float("steps", fieldparse.Number),
		Temperature:   d.Float("temperature", fieldparse.Number),

		ActivityDevice: d.Text("activity_device"),
	}
	if a.ActivityID == "" {
		a.ActivityID = d.ID("activity_id", fieldparse.ActivityID)
	}
	if a.AthleteID == "" {
		a.AthleteID = d.ID("athlete_href", fieldparse.AthleteID)
	}
	if kudos := d.Int("activity_kudos", fieldparse.Count); kudos != nil {
		a.ActivityKudos = *kudos
	}
	if text, ok := bag.Get("activity_date"); ok {
		when, err := fieldparse.ActivityDate(text, now)
		if err != nil {
			d.Fail("activity_date", text, err)
		} else {
			a.ActivityDate = when
		}
	}

	out := record.Assembly[Activity]{Record: a, FieldErrors: d.Errors(), Unknown: bag.Unknown(known)}
	return out, record.Validate(a)
}

func commute(v *string) *bool {
	if v == nil {
		return nil
	}
	s := strings.ToLower(strings.TrimSpace(*v))
	b := s == "commute" || s == "true" || s == "yes"
	return &b
}

// Filter selects which assembled activities are kept for a run.
type Filter struct {
	Types []string
	// From and Until bound ActivityDate as [From, Until+1 day). Zero means
	// unbounded. Undated activities are not held to the bounds.
	From  time.Time
	Until time.Time
}

func (f Filter) Match(a Activity) bool {
	if len(f.Types) > 0 {
		ok := false
		for _, t := range f.Types {
			if strings.EqualFold(t, a.ActivityType) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if a.ActivityDate.IsZero() {
		return true
	}
	if !f.From.IsZero() && a.ActivityDate.Before(f.From) {
		return false
	}
	if !f.Until.IsZero() && !a.ActivityDate.Before(f.Until.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

func (f Filter) Apply(in []Activity) []Activity {
	out := make([]Activity, 0, len(in))
	for _, a := range in {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	return out
}
