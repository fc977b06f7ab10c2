package score

import "errors"

// Scoring engine errors
var (
	// ErrScoreFinalized is returned when a recompute targets a day that
	// the finalization job already closed.
	ErrScoreFinalized = errors.New("daily score is finalized and immutable")

	// ErrScoreNotFound is returned for lookups of a missing score row.
	ErrScoreNotFound = errors.New("daily score not found")

	// ErrNotFinalized is returned when reopening a day that is not closed.
	ErrNotFinalized = errors.New("daily score is not finalized")

	// ErrLockHeld means another run owns the engine lease; the tick is
	// skipped, not failed.
	ErrLockHeld = errors.New("engine lock is held by another run")
)
