package record

// Bag holds one scraped entity's values keyed by field name. Later pairs
// with the same field overwrite earlier ones.
type Bag struct {
	values map[string]string
	labels map[string]string
}

func NewBag(pairs []Pair, aliases Aliases) *Bag {
	b := &Bag{
		values: make(map[string]string, len(pairs)),
		labels: make(map[string]string, len(pairs)),
	}
	for _, p := range pairs {
		canonical := CanonicalLabel(p.Label)
		if canonical == "" {
			continue
		}
		field := aliases.resolve(canonical)
		b.values[field] = p.Value
		b.labels[field] = p.Label
	}
	return b
}

func (b *Bag) Get(field string) (string, bool) {
	v, ok := b.values[field]
	return v, ok
}

// Unknown returns the original label and value of every field not in known.
func (b *Bag) Unknown(known map[string]struct{}) map[string]string {
	var out map[string]string
	for field, value := range b.values {
		if _, ok := known[field]; ok {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[b.labels[field]] = value
	}
	return out
}

// Known builds a field set from a column list.
func Known(fields ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}
