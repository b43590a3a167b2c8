package usecase

import "errors"

// Adapters and services wrap these with fmt.Errorf("%w: ...") so the CLI can
// branch on errors.Is without knowing which backend failed.
var (
	// ErrInvalidInput marks bad configuration or an unknown report format.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a club or activity page Strava no longer serves.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized marks an expired Strava session or a rejected sheets
	// token. Retrying does not help.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrDependencyUnavailable marks a scraper, store or results backend that
	// is missing or failing.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrDatasetConflict marks scraped rows that cannot be reconciled with
	// the stored dataset. The dataset is left as it was.
	ErrDatasetConflict = errors.New("dataset conflict")
)
