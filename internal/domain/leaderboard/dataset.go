package leaderboard

import (
	"math"

	"github.com/riskibarqy/club-scraper/internal/domain/dataset"
	"github.com/riskibarqy/club-scraper/internal/domain/member"
)

const DatasetName = "Leaderboard"

// WeekKey groups every row of one club's week. A run that scraped a week
// replaces all stored rows of that week.
func WeekKey(clubID, leaderboardWeek string) string {
	return dataset.Key(clubID, leaderboardWeek)
}

func (r Row) WeekKey() string { return WeekKey(r.ClubID, r.LeaderboardWeek) }

func (r Row) Key() string {
	return dataset.Key(r.ClubID, r.LeaderboardWeek, r.AthleteID)
}

func Schema() dataset.Schema[Row] {
	return dataset.Schema[Row]{
		Name:         DatasetName,
		Columns:      Columns,
		Policy:       dataset.IncomingWins,
		SupersedeKey: Row.WeekKey,
		UniqueKey:    Row.Key,
		Less: func(a, b Row) bool {
			if a.ClubID != b.ClubID {
				return dataset.LessID(a.ClubID, b.ClubID)
			}
			if !a.DateStart.Equal(b.DateStart) {
				return a.DateStart.Before(b.DateStart)
			}
			if a.Rank != b.Rank {
				return sortRank(a.Rank) < sortRank(b.Rank)
			}
			return dataset.LessID(a.AthleteID, b.AthleteID)
		},
		Encode: encode,
		Decode: decode,
	}
}

// ApplyProfile copies member fields onto the row, keeping the row's own
// value when the roster has none.
func ApplyProfile(r Row, p member.Profile) Row {
	r.AthleteLocation = member.Prefer(p.Location, r.AthleteLocation)
	r.AthleteLocationCountryCode = member.Prefer(p.CountryCode, r.AthleteLocationCountryCode)
	r.AthleteTeam = member.Prefer(p.Team, r.AthleteTeam)
	r.AthletePicture = member.Prefer(p.Picture, r.AthletePicture)
	return r
}

func Enrich(rows []Row, roster member.Roster) []Row {
	return dataset.Enrich[Row, member.Profile](rows, func(r Row) string {
		return member.Key(r.ClubID, r.AthleteID)
	}, roster, ApplyProfile)
}

// sortRank puts rows without a readable rank after every ranked row.
func sortRank(rank int64) int64 {
	if rank == RankUnknown {
		return math.MaxInt64
	}
	return rank
}

func encode(r Row) []string {
	rank, activities := &r.Rank, r.Activities
	if r.Rank == RankUnknown {
		rank = nil
	}
	return []string{
		r.ClubID,
		r.ClubName,
		r.ClubActivityType,
		r.ClubLocation,
		r.LeaderboardWeek,
		dataset.FormatDate(r.DateStart),
		dataset.FormatDate(r.DateEnd),
		dataset.FormatInt(rank),
		r.AthleteID,
		r.AthleteName,
		dataset.FormatInt(&activities),
		dataset.FormatInt(r.MovingTime),
		dataset.FormatFloat(r.Distance),
		dataset.FormatFloat(r.DistanceLongest),
		dataset.FormatFloat(r.AverageSpeed),
		dataset.FormatFloat(r.ElevationGain),
		dataset.FormatInt(r.Pace),
		dataset.FormatText(r.AthleteLocation),
		dataset.FormatText(r.AthleteLocationCountryCode),
		dataset.FormatText(r.AthleteTeam),
		dataset.FormatText(r.AthletePicture),
	}
}

func decode(c dataset.Cells) (Row, error) {
	c.Require("club_id", "leaderboard_week", "athlete_id")
	r := Row{
		ClubID:                     c.String("club_id"),
		ClubName:                   c.String("club_name"),
		ClubActivityType:           c.String("club_activity_type"),
		ClubLocation:               c.String("club_location"),
		LeaderboardWeek:            c.String("leaderboard_week"),
		DateStart:                  c.Time("leaderboard_date_start"),
		DateEnd:                    c.Time("leaderboard_date_end"),
		AthleteID:                  c.String("athlete_id"),
		AthleteName:                c.String("athlete_name"),
		MovingTime:                 c.Int("moving_time"),
		Distance:                   c.Float("distance"),
		DistanceLongest:            c.Float("distance_longest"),
		AverageSpeed:               c.Float("average_speed"),
		ElevationGain:              c.Float("elevation_gain"),
		Pace:                       c.Int("pace"),
		AthleteLocation:            c.Text("athlete_location"),
		AthleteLocationCountryCode: c.Text("athlete_location_country_code"),
		AthleteTeam:                c.Text("athlete_team"),
		AthletePicture:             c.Text("athlete_picture"),
	}
	if rank := c.Int("rank"); rank != nil {
		r.Rank = *rank
	}
	if n := c.Int("activities"); n != nil {
		r.Activities = *n
	}
	return r, c.Err()
}
