package event

import (
	"fmt"
	"strings"
	"time"
)

// Accepted timestamp layouts at the ingestion boundary. Upstream systems
// send RFC3339 or a bare "date time" form; everything is normalized to a
// canonical UTC instant before it reaches the engine.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses an upstream timestamp string into a UTC instant.
// Layouts without an explicit offset are interpreted as UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %q", raw)
}

// Validate checks the upstream invariants on an activity event.
func (e ActivityEvent) Validate() error {
	if e.EmployeeID == "" {
		return ErrMissingEmployee
	}
	if e.WindowEnd.Before(e.WindowStart) {
		return ErrInvalidWindow
	}
	if e.ItemsCount < 0 {
		return ErrNegativeItems
	}
	return nil
}

// Validate checks the upstream invariants on a clock interval.
func (c ClockInterval) Validate() error {
	if c.EmployeeID == "" {
		return ErrMissingEmployee
	}
	if c.ClockOut != nil && c.ClockOut.Before(c.ClockIn) {
		return ErrInvalidInterval
	}
	return nil
}
