package member

// Profile holds the member fields copied onto activity and leaderboard rows.
type Profile struct {
	Location    *string
	CountryCode *string
	Team        *string
	Picture     *string
}

// Roster indexes profiles by club and athlete. It is built once per run
// and only read afterwards.
type Roster map[string]Profile

func NewRoster(members []Member) Roster {
	r := make(Roster, len(members))
	for _, m := range members {
		r[m.Key()] = Profile{
			Location:    m.AthleteLocation,
			CountryCode: m.AthleteLocationCountryCode,
			Team:        m.AthleteTeam,
			Picture:     m.AthletePicture,
		}
	}
	return r
}

// Prefer returns fresh when it holds a value and stale otherwise.
func Prefer(fresh, stale *string) *string {
	if fresh != nil && *fresh != "" {
		return fresh
	}
	return stale
}
