package querybuilder

import (
	"regexp"
	"strings"
)

var whitespace = regexp.MustCompile(`\s+`)

// Compact folds a statement onto one line and cuts it at limit bytes, for
// span attributes. A limit of zero or less keeps the whole statement.
func Compact(query string, limit int) string {
	query = whitespace.ReplaceAllString(strings.TrimSpace(query), " ")
	if limit <= 0 || len(query) <= limit {
		return query
	}
	return query[:limit] + "..."
}
