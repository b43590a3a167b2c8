package fieldparse

import (
	"regexp"
	"strings"
)

// step is one named normalization applied to a raw value. Parsers compose
// steps into a fixed sequence; each step is independently testable.
type step func(string) string

type pipeline []step

func (p pipeline) apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var placeholders = map[string]struct{}{
	"":   {},
	"-":  {},
	"--": {},
	"—":  {},
	"–":  {},
}

// isPlaceholder reports whether s is an empty cell or a dash placeholder.
func isPlaceholder(s string) bool {
	_, ok := placeholders[strings.TrimSpace(s)]
	return ok
}

func trim(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
}

func stripThousands(s string) string {
	return strings.ReplaceAll(s, ",", "")
}

func lower(s string) string {
	return strings.ToLower(s)
}

func dropSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// stripSuffix returns a step removing the first matching unit suffix.
func stripSuffix(units ...string) step {
	return func(s string) string {
		for _, u := range units {
			if trimmed, ok := strings.CutSuffix(s, u); ok {
				return strings.TrimSpace(trimmed)
			}
		}
		return s
	}
}

var unitDuration = regexp.MustCompile(`^(?:(\d+)h)?(?:(\d+)m)?(?:(\d+)s)?$`)

// disambiguateSuffix rewrites unit-suffixed durations ("45s", "12m",
// "1h5m", "3h") into colon form. It must run before padColons, otherwise
// a bare "45s" would be taken for a malformed colon value.
func disambiguateSuffix(s string) string {
	if s == "" || strings.Contains(s, ":") {
		return s
	}
	m := unitDuration.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "" && m[3] == "") {
		return s
	}
	return orZero(m[1]) + ":" + orZero(m[2]) + ":" + orZero(m[3])
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// padColons widens "SS" and "MM:SS" to three parts.
func padColons(s string) string {
	switch strings.Count(s, ":") {
	case 0:
		return "0:0:" + s
	case 1:
		return "0:" + s
	default:
		return s
	}
}
