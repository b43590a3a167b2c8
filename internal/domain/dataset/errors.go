package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyCollision means two rows share a unique key. It points at a key
	// derivation bug upstream, so the dataset is not written back.
	ErrKeyCollision = errors.New("dataset: key collision")

	// ErrStoredRowInvalid means a stored row could not be read back into its
	// typed form. Writing a merge built without it would lose data.
	ErrStoredRowInvalid = errors.New("dataset: stored row invalid")
)

type Side string

const (
	SideIncoming Side = "incoming"
	SideMerged   Side = "merged"
)

type KeyCollisionError struct {
	Dataset string
	Key     string
	Count   int
	Side    Side
}

func (e *KeyCollisionError) Error() string {
	return fmt.Sprintf("%s: key %q appears %d times in %s rows", e.Dataset, e.Key, e.Count, e.Side)
}

func (e *KeyCollisionError) Is(target error) bool { return target == ErrKeyCollision }

type StoredRowError struct {
	Dataset string
	Row     int
	Err     error
}

func (e *StoredRowError) Error() string {
	return fmt.Sprintf("%s: stored row %d: %v", e.Dataset, e.Row, e.Err)
}

func (e *StoredRowError) Unwrap() error { return e.Err }

func (e *StoredRowError) Is(target error) bool { return target == ErrStoredRowInvalid }
