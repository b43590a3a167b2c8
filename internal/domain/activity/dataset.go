package activity

import (
	"github.com/riskibarqy/club-scraper/internal/domain/dataset"
	"github.com/riskibarqy/club-scraper/internal/domain/member"
)

const DatasetName = "Activities"

func Key(clubID, activityID string) string {
	return dataset.Key(clubID, activityID)
}

func (a Activity) Key() string { return Key(a.ClubID, a.ActivityID) }

// Schema replaces a stored activity whole when it is scraped again.
func Schema() dataset.Schema[Activity] {
	return dataset.Schema[Activity]{
		Name:      DatasetName,
		Columns:   Columns,
		Policy:    dataset.IncomingWins,
		UniqueKey: Activity.Key,
		Less: func(a, b Activity) bool {
			if a.ClubID != b.ClubID {
				return dataset.LessID(a.ClubID, b.ClubID)
			}
			if !a.ActivityDate.Equal(b.ActivityDate) {
				return a.ActivityDate.Before(b.ActivityDate)
			}
			return dataset.LessID(a.ActivityID, b.ActivityID)
		},
		Encode: encode,
		Decode: decode,
	}
}

// ApplyProfile copies member fields onto the activity, keeping the value
// already on the row when the roster has none.
func ApplyProfile(a Activity, p member.Profile) Activity {
	a.AthleteLocation = member.Prefer(p.Location, a.AthleteLocation)
	a.AthleteTeam = member.Prefer(p.Team, a.AthleteTeam)
	a.AthletePicture = member.Prefer(p.Picture, a.AthletePicture)
	return a
}

// Enrich joins activities with the member roster on club and athlete.
func Enrich(rows []Activity, roster member.Roster) []Activity {
	return dataset.Enrich[Activity, member.Profile](rows, func(a Activity) string {
		return member.Key(a.ClubID, a.AthleteID)
	}, roster, ApplyProfile)
}

func encode(a Activity) []string {
	return []string{
		a.ClubID,
		dataset.FormatDateTime(a.ActivityDate),
		a.AthleteID,
		a.AthleteName,
		a.ActivityType,
		a.ActivityID,
		dataset.FormatText(a.ActivityName),
		dataset.FormatText(a.ActivityDescription),
		dataset.FormatText(a.ActivityLocation),
		dataset.FormatBool(a.Commute),
		dataset.FormatInt(a.ElapsedTime),
		dataset.FormatInt(a.MovingTime),
		dataset.FormatFloat(a.Distance),
		dataset.FormatFloat(a.MaxSpeed),
		dataset.FormatFloat(a.AverageSpeed),
		dataset.FormatFloat(a.ElevationGain),
		dataset.FormatInt(a.Pace),
		dataset.FormatFloat(a.HeartRate),
		dataset.FormatFloat(a.Cadence),
		dataset.FormatFloat(a.Power),
		dataset.FormatFloat(a.Calories),
		dataset.FormatFloat(a.Steps),
		dataset.FormatFloat(a.Temperature),
		dataset.FormatText(a.ActivityDevice),
		dataset.FormatInt(&a.ActivityKudos),
		dataset.FormatText(a.AthleteLocation),
		dataset.FormatText(a.AthleteTeam),
		dataset.FormatText(a.AthletePicture),
	}
}

func decode(c dataset.Cells) (Activity, error) {
	c.Require("club_id", "activity_id")
	a := Activity{
		ClubID:              c.String("club_id"),
		ActivityDate:        c.Time("activity_date"),
		AthleteID:           c.String("athlete_id"),
		AthleteName:         c.String("athlete_name"),
		ActivityType:        c.String("activity_type"),
		ActivityID:          c.String("activity_id"),
		ActivityName:        c.Text("activity_name"),
		ActivityDescription: c.Text("activity_description"),
		ActivityLocation:    c.Text("activity_location"),
		Commute:             c.Bool("commute"),
		ElapsedTime:         c.Int("elapsed_time"),
		MovingTime:          c.Int("moving_time"),
		Distance:            c.Float("distance"),
		MaxSpeed:            c.Float("max_speed"),
		AverageSpeed:        c.Float("average_speed"),
		ElevationGain:       c.Float("elevation_gain"),
		Pace:                c.Int("pace"),
		HeartRate:           c.Float("heart_rate"),
		Cadence:             c.Float("cadence"),
		Power:               c.Float("power"),
		Calories:            c.Float("calories"),
		Steps:               c.Float("steps"),
		Temperature:         c.Float("temperature"),
		ActivityDevice:      c.Text("activity_device"),
		AthleteLocation:     c.Text("athlete_location"),
		AthleteTeam:         c.Text("athlete_team"),
		AthletePicture:      c.Text("athlete_picture"),
	}
	if kudos := c.Int("activity_kudos"); kudos != nil {
		a.ActivityKudos = *kudos
	}
	return a, c.Err()
}
