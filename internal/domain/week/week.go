// Package week buckets dates into Monday-based leaderboard weeks. Every
// function takes its reference time explicitly and never reads the clock.
package week

import (
	"fmt"
	"strings"
	"time"
)

const dayLayout = "2006-01-02"

// Week spans [Start, End): Monday 00:00 up to, not including, the next
// Monday 00:00, in Start's location.
type Week struct {
	Start time.Time
	End   time.Time
}

// Bucket returns the week containing t.
func Bucket(t time.Time) Week {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7 // days since Monday
	start := day.AddDate(0, 0, -offset)
	return Week{Start: start, End: start.AddDate(0, 0, 7)}
}

// CurrentWeekOffset returns the week containing now shifted back n weeks.
func CurrentWeekOffset(now time.Time, n int) Week {
	return Bucket(now).Shift(-n)
}

func (w Week) Shift(weeks int) Week {
	return Week{Start: w.Start.AddDate(0, 0, 7*weeks), End: w.End.AddDate(0, 0, 7*weeks)}
}

// LastDay is the Sunday closing the week.
func (w Week) LastDay() time.Time {
	return w.End.AddDate(0, 0, -1)
}

func (w Week) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Label renders "YYYY-MM-DD to YYYY-MM-DD" using Monday and Sunday.
func (w Week) Label() string {
	return w.Start.Format(dayLayout) + " to " + w.LastDay().Format(dayLayout)
}

// ParseLabel reverses Label.
func ParseLabel(label string, loc *time.Location) (Week, error) {
	if loc == nil {
		loc = time.UTC
	}
	first, last, ok := strings.Cut(strings.TrimSpace(label), " to ")
	if !ok {
		return Week{}, fmt.Errorf("week label %q: missing \" to \"", label)
	}
	start, err := time.ParseInLocation(dayLayout, strings.TrimSpace(first), loc)
	if err != nil {
		return Week{}, fmt.Errorf("week label %q: %w", label, err)
	}
	end, err := time.ParseInLocation(dayLayout, strings.TrimSpace(last), loc)
	if err != nil {
		return Week{}, fmt.Errorf("week label %q: %w", label, err)
	}
	w := Bucket(start)
	if !w.Start.Equal(start) || !w.LastDay().Equal(end) {
		return Week{}, fmt.Errorf("week label %q: not a Monday to Sunday span", label)
	}
	return w, nil
}

// ISOWeek returns the ISO 8601 week number, 1 to 53.
func ISOWeek(t time.Time) int {
	_, n := t.ISOWeek()
	return n
}

// ISOLabel renders the ISO year and week as "2024-W07".
func ISOLabel(t time.Time) string {
	year, n := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, n)
}

// ParseISOLabel reverses ISOLabel.
func ParseISOLabel(label string) (year, number int, err error) {
	if _, err := fmt.Sscanf(strings.TrimSpace(label), "%d-W%d", &year, &number); err != nil {
		return 0, 0, fmt.Errorf("iso week label %q: %w", label, err)
	}
	if number < 1 || number > 53 {
		return 0, 0, fmt.Errorf("iso week label %q: week %d out of range", label, number)
	}
	return year, number, nil
}
