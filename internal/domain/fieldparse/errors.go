package fieldparse

import (
	"errors"
	"fmt"
)

// ErrEmpty reports a declared null: an empty cell or a dash placeholder.
var ErrEmpty = errors.New("fieldparse: empty value")

// ErrUnparseable reports text that does not fit the expected shape.
var ErrUnparseable = errors.New("fieldparse: unparseable value")

// Error carries the raw text that failed to parse. It matches ErrUnparseable.
type Error struct {
	Kind string
	Raw  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s %q: %v", e.Kind, e.Raw, e.Err)
	}
	return fmt.Sprintf("parse %s %q", e.Kind, e.Raw)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrUnparseable }

func unparseable(kind, raw string, err error) error {
	return &Error{Kind: kind, Raw: raw, Err: err}
}
