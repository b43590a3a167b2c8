package dataset

// Enrich left-joins rows against a lookup table. Rows whose key misses the
// lookup are returned unchanged. The input slice is not modified.
func Enrich[T any, P any](rows []T, key func(T) string, lookup map[string]P, apply func(T, P) T) []T {
	out := make([]T, len(rows))
	for i, row := range rows {
		if p, ok := lookup[key(row)]; ok {
			row = apply(row, p)
		}
		out[i] = row
	}
	return out
}
