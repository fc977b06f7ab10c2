package employee

import "time"

// Employee is upstream reference data. The engine only needs identity,
// the display name for audit notes, and the timezone that buckets the
// employee's events into local calendar days.
type Employee struct {
	ID        string
	FullName  string
	TimeZone  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
