package dataset

import (
	"sort"
	"strings"
)

// Merge reconciles incoming against stored and returns a new, sorted
// collection. Neither input is modified.
//
// Duplicate unique keys inside incoming are rejected before anything is
// merged. The merged result is checked again so a stored set that already
// holds duplicates is reported instead of persisted. An empty stored set
// returns the sorted incoming rows.
func Merge[T any](schema Schema[T], stored, incoming []T) ([]T, error) {
	if err := checkUnique(schema, incoming, SideIncoming); err != nil {
		return nil, err
	}

	var merged []T
	switch schema.Policy {
	case StoredWins:
		merged = mergeStoredWins(schema, stored, incoming)
	default:
		merged = mergeIncomingWins(schema, stored, incoming)
	}

	if err := checkUnique(schema, merged, SideMerged); err != nil {
		return nil, err
	}
	Sort(schema, merged)
	return merged, nil
}

func mergeIncomingWins[T any](schema Schema[T], stored, incoming []T) []T {
	superseded := make(map[string]struct{}, len(incoming))
	for _, row := range incoming {
		superseded[schema.supersedeKey(row)] = struct{}{}
	}

	out := make([]T, 0, len(incoming)+len(stored))
	out = append(out, incoming...)
	for _, row := range stored {
		if _, ok := superseded[schema.supersedeKey(row)]; ok {
			continue
		}
		out = append(out, row)
	}
	return out
}

func mergeStoredWins[T any](schema Schema[T], stored, incoming []T) []T {
	known := make(map[string]struct{}, len(stored))
	for _, row := range stored {
		known[schema.UniqueKey(row)] = struct{}{}
	}

	out := make([]T, 0, len(incoming)+len(stored))
	out = append(out, stored...)
	for _, row := range incoming {
		if _, ok := known[schema.UniqueKey(row)]; ok {
			continue
		}
		out = append(out, row)
	}
	return out
}

// NetNew returns the incoming rows whose unique key is absent from stored.
func NetNew[T any](schema Schema[T], stored, incoming []T) []T {
	known := make(map[string]struct{}, len(stored))
	for _, row := range stored {
		known[schema.UniqueKey(row)] = struct{}{}
	}
	var out []T
	for _, row := range incoming {
		if _, ok := known[schema.UniqueKey(row)]; !ok {
			out = append(out, row)
		}
	}
	return out
}

// Sort orders rows in place by the schema's persisted sort order.
func Sort[T any](schema Schema[T], rows []T) {
	if schema.Less == nil {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return schema.Less(rows[i], rows[j])
	})
}

func checkUnique[T any](schema Schema[T], rows []T, side Side) error {
	counts := make(map[string]int, len(rows))
	var firstDup string
	for _, row := range rows {
		key := schema.UniqueKey(row)
		counts[key]++
		if counts[key] == 2 && firstDup == "" {
			firstDup = key
		}
	}
	if firstDup == "" {
		return nil
	}
	return &KeyCollisionError{
		Dataset: schema.Name,
		Key:     firstDup,
		Count:   counts[firstDup],
		Side:    side,
	}
}

// Key joins key parts. Ids and week labels never contain "|".
func Key(parts ...string) string {
	return strings.Join(parts, "|")
}

// LessID orders numeric ids numerically and falls back to string order.
func LessID(a, b string) bool {
	if len(a) != len(b) && isNumeric(a) && isNumeric(b) {
		return len(a) < len(b)
	}
	return a < b
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
