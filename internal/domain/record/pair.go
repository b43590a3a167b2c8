package record

import (
	"regexp"
	"strings"
)

type Pair struct {
	Label string
	Value string
}

// Order says which token of an alternating list comes first.
type Order int

const (
	LabelFirst Order = iota
	ValueFirst
)

// FromTokens pairs a flat token list such as ["12.3 km", "Distance",
// "1:02:03", "Moving Time"]. A trailing unpaired token is returned as
// leftover instead of failing the record.
func FromTokens(tokens []string, order Order) (pairs []Pair, leftover string) {
	pairs = make([]Pair, 0, len(tokens)/2)
	for i := 0; i+1 < len(tokens); i += 2 {
		a, b := tokens[i], tokens[i+1]
		if order == ValueFirst {
			a, b = b, a
		}
		pairs = append(pairs, Pair{Label: a, Value: b})
	}
	if len(tokens)%2 == 1 {
		leftover = tokens[len(tokens)-1]
	}
	return pairs, leftover
}

var (
	separators   = regexp.MustCompile(`[\s./\-]+`)
	disallowed   = regexp.MustCompile(`[^a-z0-9_]`)
	underscoreRe = regexp.MustCompile(`_+`)
)

// CanonicalLabel lowercases a label and folds whitespace, dots, dashes and
// slashes into single underscores. Other punctuation is removed.
func CanonicalLabel(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	s = separators.ReplaceAllString(s, "_")
	s = disallowed.ReplaceAllString(s, "")
	s = underscoreRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// Aliases maps canonical labels onto the typed field vocabulary.
type Aliases map[string]string

// Merge returns a copy of a overlaid with b.
func (a Aliases) Merge(b Aliases) Aliases {
	out := make(Aliases, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func (a Aliases) resolve(canonical string) string {
	if field, ok := a[canonical]; ok {
		return field
	}
	return canonical
}

// Raw is what a scraper yields for one entity: the identifying keys it
// already knows and the labelled values found on the page.
type Raw struct {
	ClubID   string
	EntityID string
	Pairs    []Pair
}
