package event

import (
	"time"
)

// ActivityEvent is a discrete production-activity window produced by the
// external production sync. Immutable from the engine's point of view.
type ActivityEvent struct {
	ID           string
	EmployeeID   string
	WindowStart  time.Time
	WindowEnd    time.Time
	ActivityType string
	ItemsCount   int
	RoleID       *string
	Source       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Duration returns the activity window length.
func (e ActivityEvent) Duration() time.Duration {
	return e.WindowEnd.Sub(e.WindowStart)
}

// ClockInterval is one clocked session produced by the external time-clock
// sync. ClockOut is nil while the employee is still clocked in.
type ClockInterval struct {
	ID         string
	EmployeeID string
	ClockIn    time.Time
	ClockOut   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsOpen reports whether the session has no clock-out yet.
func (c ClockInterval) IsOpen() bool {
	return c.ClockOut == nil
}

// EndOrNow returns clock-out for closed sessions, or now for open ones.
func (c ClockInterval) EndOrNow(now time.Time) time.Time {
	if c.ClockOut != nil {
		return *c.ClockOut
	}
	return now
}
