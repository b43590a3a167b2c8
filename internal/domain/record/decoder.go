package record

import (
	"errors"
	"fmt"
	"strings"

	"github.com/riskibarqy/club-scraper/internal/domain/fieldparse"
)

// ErrUnknownLabel marks labels outside the typed vocabulary. They are kept
// in Assembly.Unknown and never fail a record.
var ErrUnknownLabel = errors.New("record: unknown label")

// FieldError describes one field dropped from one record.
type FieldError struct {
	Field string
	Raw   string
	Err   error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("field %s (%q): %v", e.Field, e.Raw, e.Err)
}

func (e FieldError) Unwrap() error { return e.Err }

// Assembly is an assembled record plus everything that was dropped or left
// untyped along the way.
type Assembly[T any] struct {
	Record      T
	FieldErrors []FieldError
	Unknown     map[string]string
}

// Decoder reads typed fields out of a Bag. A field that fails to parse is
// recorded and left nil; decoding always continues.
type Decoder struct {
	bag  *Bag
	errs []FieldError
}

func NewDecoder(bag *Bag) *Decoder {
	return &Decoder{bag: bag}
}

func (d *Decoder) Errors() []FieldError { return d.errs }

func (d *Decoder) Fail(field, raw string, err error) {
	d.errs = append(d.errs, FieldError{Field: field, Raw: raw, Err: err})
}

func (d *Decoder) Text(field string) *string {
	raw, ok := d.bag.Get(field)
	if !ok {
		return nil
	}
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	return &v
}

// String returns the trimmed text or "" when absent.
func (d *Decoder) String(field string) string {
	if v := d.Text(field); v != nil {
		return *v
	}
	return ""
}

func (d *Decoder) Float(field string, parse func(string) (float64, error)) *float64 {
	raw, ok := d.bag.Get(field)
	if !ok {
		return nil
	}
	v, err := parse(raw)
	if err != nil {
		d.note(field, raw, err)
		return nil
	}
	return &v
}

func (d *Decoder) Int(field string, parse func(string) (int64, error)) *int64 {
	raw, ok := d.bag.Get(field)
	if !ok {
		return nil
	}
	v, err := parse(raw)
	if err != nil {
		d.note(field, raw, err)
		return nil
	}
	return &v
}

func (d *Decoder) ID(field string, parse func(string) (string, error)) string {
	raw, ok := d.bag.Get(field)
	if !ok {
		return ""
	}
	v, err := parse(raw)
	if err != nil {
		d.note(field, raw, err)
		return ""
	}
	return v
}

func (d *Decoder) note(field, raw string, err error) {
	if errors.Is(err, fieldparse.ErrEmpty) {
		return
	}
	d.Fail(field, raw, err)
}
