package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/workpulse/prodscore-engine-go/internal/domain/event"
)

// ActivityEventRecord is one activity window as the upstream adapters
// submit it: timestamps as strings, parsed strictly before anything
// touches the engine.
type ActivityEventRecord struct {
	EmployeeID   string  `json:"employee_id"`
	WindowStart  string  `json:"window_start"`
	WindowEnd    string  `json:"window_end"`
	ActivityType string  `json:"activity_type"`
	ItemsCount   int     `json:"items_count"`
	RoleID       *string `json:"role_id,omitempty"`
	Source       string  `json:"source"`
}

// ClockIntervalRecord is one clocked session; clock_out absent or null
// means the session is still open.
type ClockIntervalRecord struct {
	EmployeeID string  `json:"employee_id"`
	ClockIn    string  `json:"clock_in"`
	ClockOut   *string `json:"clock_out,omitempty"`
}

// File is the import payload format.
type File struct {
	ActivityEvents []ActivityEventRecord `json:"activity_events"`
	ClockIntervals []ClockIntervalRecord `json:"clock_intervals"`
}

// Summary reports what an import run wrote.
type Summary struct {
	EventsUpserted    int
	IntervalsUpserted int
}

// Service imports raw events the same way the external sync adapters do:
// strict timestamp parsing, invariant validation, then idempotent upserts
// keyed so resubmitting a file never duplicates rows.
type Service struct {
	events event.ActivityEventWriter
	clocks event.ClockIntervalWriter
}

func NewService(events event.ActivityEventWriter, clocks event.ClockIntervalWriter) *Service {
	return &Service{events: events, clocks: clocks}
}

// Import decodes a payload and upserts every record. The first invalid
// record aborts the import with its index in the error; records written
// before the failure stay written (upserts make the retry safe).
func (s *Service) Import(ctx context.Context, r io.Reader) (Summary, error) {
	var file File
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return Summary{}, fmt.Errorf("failed to decode import payload: %w", err)
	}

	var summary Summary

	for i, rec := range file.ActivityEvents {
		ev, err := rec.toEvent()
		if err != nil {
			return summary, fmt.Errorf("activity_events[%d]: %w", i, err)
		}
		if err := s.events.Upsert(ctx, ev); err != nil {
			return summary, fmt.Errorf("activity_events[%d]: %w", i, err)
		}
		summary.EventsUpserted++
	}

	for i, rec := range file.ClockIntervals {
		iv, err := rec.toInterval()
		if err != nil {
			return summary, fmt.Errorf("clock_intervals[%d]: %w", i, err)
		}
		if err := s.clocks.Upsert(ctx, iv); err != nil {
			return summary, fmt.Errorf("clock_intervals[%d]: %w", i, err)
		}
		summary.IntervalsUpserted++
	}

	slog.Info("Import completed",
		"events", summary.EventsUpserted,
		"intervals", summary.IntervalsUpserted)
	return summary, nil
}

func (r ActivityEventRecord) toEvent() (event.ActivityEvent, error) {
	start, err := event.ParseTimestamp(r.WindowStart)
	if err != nil {
		return event.ActivityEvent{}, fmt.Errorf("window_start: %w", err)
	}
	end, err := event.ParseTimestamp(r.WindowEnd)
	if err != nil {
		return event.ActivityEvent{}, fmt.Errorf("window_end: %w", err)
	}

	ev := event.ActivityEvent{
		EmployeeID:   r.EmployeeID,
		WindowStart:  start,
		WindowEnd:    end,
		ActivityType: r.ActivityType,
		ItemsCount:   r.ItemsCount,
		RoleID:       r.RoleID,
		Source:       r.Source,
	}
	if ev.Source == "" {
		return event.ActivityEvent{}, fmt.Errorf("source is required")
	}
	if err := ev.Validate(); err != nil {
		return event.ActivityEvent{}, err
	}
	return ev, nil
}

func (r ClockIntervalRecord) toInterval() (event.ClockInterval, error) {
	in, err := event.ParseTimestamp(r.ClockIn)
	if err != nil {
		return event.ClockInterval{}, fmt.Errorf("clock_in: %w", err)
	}

	iv := event.ClockInterval{
		EmployeeID: r.EmployeeID,
		ClockIn:    in,
	}
	if r.ClockOut != nil {
		out, err := event.ParseTimestamp(*r.ClockOut)
		if err != nil {
			return event.ClockInterval{}, fmt.Errorf("clock_out: %w", err)
		}
		iv.ClockOut = &out
	}
	if err := iv.Validate(); err != nil {
		return event.ClockInterval{}, err
	}
	return iv, nil
}
