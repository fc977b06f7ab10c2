package event

import (
	"context"
	"time"
)

// ActivityEventRepository reads activity windows written by the production
// sync adapter. The engine never mutates these rows.
type ActivityEventRepository interface {
	// ListByEmployeeAndRange returns events whose window overlaps
	// [start, end), ordered by window_start.
	ListByEmployeeAndRange(ctx context.Context, employeeID string, start, end time.Time) ([]ActivityEvent, error)
}

// ClockIntervalRepository reads clocked sessions written by the time-clock
// sync adapter. The engine never mutates these rows.
type ClockIntervalRepository interface {
	// ListOverlappingRange returns intervals overlapping [start, end),
	// ordered by clock_in. Open intervals (clock_out null) that started
	// before end are included.
	ListOverlappingRange(ctx context.Context, employeeID string, start, end time.Time) ([]ClockInterval, error)
}

// ActivityEventWriter is the producer side of the contract, used by the
// bundled import tool. Upserts are keyed on (employee_id, window_start,
// source) so repeated submissions never duplicate rows.
type ActivityEventWriter interface {
	Upsert(ctx context.Context, ev ActivityEvent) error
}

// ClockIntervalWriter upserts clocked sessions keyed on
// (employee_id, clock_in).
type ClockIntervalWriter interface {
	Upsert(ctx context.Context, iv ClockInterval) error
}
