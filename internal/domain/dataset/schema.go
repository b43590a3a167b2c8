// Package dataset reconciles freshly scraped rows with rows already
// persisted, and converts rows to and from string tables.
package dataset

// Policy decides which side keeps a row when both hold the same key.
type Policy int

const (
	// IncomingWins drops every stored row whose supersede key appears in the
	// incoming set and keeps the incoming rows whole.
	IncomingWins Policy = iota
	// StoredWins keeps stored rows untouched and only adds incoming rows
	// whose key is new.
	StoredWins
)

// Schema describes one dataset kind: its persisted column order, its keys
// and how a row maps to and from string cells.
type Schema[T any] struct {
	Name    string
	Columns []string
	Policy  Policy

	// SupersedeKey groups rows that an incoming run replaces together.
	// It defaults to UniqueKey.
	SupersedeKey func(T) string
	// UniqueKey identifies a single row.
	UniqueKey func(T) string
	// Less is the persisted sort order.
	Less func(a, b T) bool

	Encode func(T) []string
	Decode func(Cells) (T, error)
}

func (s Schema[T]) supersedeKey(row T) string {
	if s.SupersedeKey != nil {
		return s.SupersedeKey(row)
	}
	return s.UniqueKey(row)
}
