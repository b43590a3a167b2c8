package fieldparse

import (
	"regexp"
	"strings"
	"time"
)

var clockLayouts = []string{"3:04 PM", "15:04"}

var dayLayouts = []string{
	"Monday, January 2, 2006",
	"January 2, 2006",
	"Mon, Jan 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
}

var storedLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ActivityDate resolves the feed's relative and absolute timestamps against
// now, in now's location: "Today at 5:30 PM", "Yesterday at 7:01 AM",
// "5:30 PM on Monday, July 4, 2022" and plain "July 4, 2022".
func ActivityDate(raw string, now time.Time) (time.Time, error) {
	s := trim(raw)
	if isPlaceholder(s) {
		return time.Time{}, ErrEmpty
	}
	loc := now.Location()

	if day, clock, ok := strings.Cut(s, " at "); ok {
		base := now
		switch strings.ToLower(strings.TrimSpace(day)) {
		case "today":
		case "yesterday":
			base = now.AddDate(0, 0, -1)
		default:
			return time.Time{}, unparseable("activity date", raw, nil)
		}
		h, m, err := clockOf(clock)
		if err != nil {
			return time.Time{}, unparseable("activity date", raw, err)
		}
		return time.Date(base.Year(), base.Month(), base.Day(), h, m, 0, 0, loc), nil
	}

	if clock, day, ok := strings.Cut(s, " on "); ok {
		d, err := dayOf(day, loc)
		if err != nil {
			return time.Time{}, unparseable("activity date", raw, err)
		}
		h, m, err := clockOf(clock)
		if err != nil {
			return time.Time{}, unparseable("activity date", raw, err)
		}
		return d.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute), nil
	}

	for _, layout := range storedLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	d, err := dayOf(s, loc)
	if err != nil {
		return time.Time{}, unparseable("activity date", raw, err)
	}
	return d, nil
}

// Date reads a stored date or datetime cell.
func Date(raw string, loc *time.Location) (time.Time, error) {
	s := trim(raw)
	if isPlaceholder(s) {
		return time.Time{}, ErrEmpty
	}
	if loc == nil {
		loc = time.UTC
	}
	var lastErr error
	for _, layout := range storedLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, unparseable("date", raw, lastErr)
}

func clockOf(s string) (int, int, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	var lastErr error
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.Hour(), t.Minute(), nil
		}
		lastErr = err
	}
	return 0, 0, lastErr
}

func dayOf(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range dayLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

var (
	activityHref = regexp.MustCompile(`/activities/(\d+)`)
	athleteHref  = regexp.MustCompile(`/athletes/(\d+)`)
	clubHref     = regexp.MustCompile(`/clubs/([^/?#]+)`)
)

// ActivityID extracts the numeric id from an activity link, dropping any
// query or fragment. A bare numeric id is returned unchanged.
func ActivityID(href string) (string, error) {
	return idFrom("activity id", activityHref, href)
}

func AthleteID(href string) (string, error) {
	return idFrom("athlete id", athleteHref, href)
}

func ClubID(href string) (string, error) {
	return idFrom("club id", clubHref, href)
}

func idFrom(kind string, re *regexp.Regexp, href string) (string, error) {
	s := trim(href)
	if s == "" {
		return "", ErrEmpty
	}
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}
	if isDigits(s) {
		return s, nil
	}
	return "", unparseable(kind, href, nil)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
