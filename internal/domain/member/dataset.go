package member

import (
	"github.com/riskibarqy/club-scraper/internal/domain/dataset"
)

const DatasetName = "Members"

// Schema keeps stored members untouched: a re-scrape never overwrites the
// join date or geocoded fields, it only appends members not seen before.
func Schema() dataset.Schema[Member] {
	return dataset.Schema[Member]{
		Name:      DatasetName,
		Columns:   Columns,
		Policy:    dataset.StoredWins,
		UniqueKey: Member.Key,
		Less: func(a, b Member) bool {
			if a.ClubID != b.ClubID {
				return dataset.LessID(a.ClubID, b.ClubID)
			}
			return dataset.LessID(a.AthleteID, b.AthleteID)
		},
		Encode: encode,
		Decode: decode,
	}
}

func encode(m Member) []string {
	return []string{
		m.ClubID,
		m.ClubName,
		m.ClubLocation,
		m.ClubActivityType,
		m.AthleteID,
		m.AthleteName,
		dataset.FormatText(m.AthleteLocation),
		dataset.FormatText(m.AthleteLocationCountry),
		dataset.FormatText(m.AthleteLocationCountryCode),
		dataset.FormatDate(m.JoinDate),
		dataset.FormatText(m.AthleteTeam),
		dataset.FormatText(m.AthletePicture),
	}
}

func decode(c dataset.Cells) (Member, error) {
	c.Require("club_id", "athlete_id")
	m := Member{
		ClubID:                     c.String("club_id"),
		ClubName:                   c.String("club_name"),
		ClubLocation:               c.String("club_location"),
		ClubActivityType:           c.String("club_activity_type"),
		AthleteID:                  c.String("athlete_id"),
		AthleteName:                c.String("athlete_name"),
		AthleteLocation:            c.Text("athlete_location"),
		AthleteLocationCountry:     c.Text("athlete_location_country"),
		AthleteLocationCountryCode: c.Text("athlete_location_country_code"),
		JoinDate:                   c.Time("join_date"),
		AthleteTeam:                c.Text("athlete_team"),
		AthletePicture:             c.Text("athlete_picture"),
	}
	return m, c.Err()
}
