package leaderboard

import (
	"time"

	"github.com/riskibarqy/club-scraper/internal/domain/club"
	"github.com/riskibarqy/club-scraper/internal/domain/fieldparse"
	"github.com/riskibarqy/club-scraper/internal/domain/record"
	"github.com/riskibarqy/club-scraper/internal/domain/week"
)

// RankUnknown is the rank of a scraped row whose rank cell could not be
// read. It is stored as an empty cell.
const RankUnknown int64 = 0

// RankUnranked marks rows aggregated from individual activities rather
// than read from the club's leaderboard table. It assumes no club
// leaderboard ever lists 999 athletes.
const RankUnranked int64 = 999

// Row is one athlete's line in one club's weekly leaderboard. DateEnd is
// the Sunday closing the week.
type Row struct {
	ClubID           string `validate:"required"`
	ClubName         string
	ClubActivityType string
	ClubLocation     string

	LeaderboardWeek string    `validate:"required"`
	DateStart       time.Time `validate:"required"`
	DateEnd         time.Time `validate:"required"`

	Rank            int64  `validate:"gte=0"`
	AthleteID       string `validate:"required,numeric"`
	AthleteName     string
	Activities      int64    `validate:"gte=0"`
	MovingTime      *int64   `validate:"omitempty,gte=0"`
	Distance        *float64 `validate:"omitempty,gte=0"`
	DistanceLongest *float64 `validate:"omitempty,gte=0"`
	AverageSpeed    *float64 `validate:"omitempty,gte=0"`
	ElevationGain   *float64 `validate:"omitempty,gte=0"`
	Pace            *int64   `validate:"omitempty,gte=0"`

	AthleteLocation            *string
	AthleteLocationCountryCode *string
	AthleteTeam                *string
	AthletePicture             *string
}

func (r Row) Manual() bool { return r.Rank == RankUnranked }

var Columns = []string{
	"club_id",
	"club_name",
	"club_activity_type",
	"club_location",
	"leaderboard_week",
	"leaderboard_date_start",
	"leaderboard_date_end",
	"rank",
	"athlete_id",
	"athlete_name",
	"activities",
	"moving_time",
	"distance",
	"distance_longest",
	"average_speed",
	"elevation_gain",
	"pace",
	"athlete_location",
	"athlete_location_country_code",
	"athlete_team",
	"athlete_picture",
}

var known = record.Known(append([]string{"athlete_href"}, Columns...)...)

// Assemble builds a row from one leaderboard table line. Table headers are
// mapped through the club's sport-specific vocabulary.
func Assemble(raw record.Raw, c club.Club, w week.Week) (record.Assembly[Row], error) {
	aliases := c.LeaderboardAliases().Merge(record.Aliases{"athlete_url": "athlete_href"})
	bag := record.NewBag(raw.Pairs, aliases)
	d := record.NewDecoder(bag)

	r := Row{
		ClubID:           raw.ClubID,
		ClubName:         c.Name,
		ClubActivityType: string(c.ActivityType),
		ClubLocation:     c.Location,
		LeaderboardWeek:  w.Label(),
		DateStart:        w.Start,
		DateEnd:          w.LastDay(),
		AthleteID:        raw.EntityID,
		AthleteName:      d.String("athlete_name"),
		MovingTime:       d.Int("moving_time", fieldparse.Duration),
		Distance:         d.Float("distance", fieldparse.Distance),
		DistanceLongest:  d.Float("distance_longest", fieldparse.Distance),
		AverageSpeed:     d.Float("average_speed", fieldparse.Speed),
		ElevationGain:    d.Float("elevation_gain", fieldparse.Elevation),
		Pace:             d.Int("pace", fieldparse.Pace),
	}
	if r.AthleteID == "" {
		r.AthleteID = d.ID("athlete_href", fieldparse.AthleteID)
	}
	if rank := d.Int("rank", fieldparse.Count); rank != nil {
		r.Rank = *rank
	}
	if n := d.Int("activities", fieldparse.Count); n != nil {
		r.Activities = *n
	}

	out := record.Assembly[Row]{Record: r, FieldErrors: d.Errors(), Unknown: bag.Unknown(known)}
	return out, record.Validate(r)
}

// InRange reports whether the whole week lies inside [from, until+1 day).
// Zero bounds are open.
func (r Row) InRange(from, until time.Time) bool {
	if !from.IsZero() && r.DateStart.Before(from) {
		return false
	}
	if !until.IsZero() && !r.DateEnd.Before(until.AddDate(0, 0, 1)) {
		return false
	}
	return true
}
