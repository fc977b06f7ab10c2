package scoring

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/workpulse/prodscore-engine-go/internal/domain/event"
	"github.com/workpulse/prodscore-engine-go/internal/domain/score"
)

// timeSpan is a half-open [Start, End) slice of time.
type timeSpan struct {
	Start time.Time
	End   time.Time
}

// mergeActivityWindows unions overlapping or touching activity windows into
// a sorted, non-overlapping timeline. Zero-length windows are dropped.
func mergeActivityWindows(events []event.ActivityEvent) []timeSpan {
	spans := make([]timeSpan, 0, len(events))
	for _, ev := range events {
		if !ev.WindowEnd.After(ev.WindowStart) {
			continue
		}
		spans = append(spans, timeSpan{Start: ev.WindowStart, End: ev.WindowEnd})
	}
	if len(spans) == 0 {
		return nil
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].Start.Before(spans[j].Start) })

	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if !s.Start.After(last.End) {
			if s.End.After(last.End) {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// DetectIdle finds gaps strictly longer than thresholdMinutes inside each
// clocked session. Activity is merged once, then each interval is walked
// in a single pass: the stretch before the first overlapping window,
// stretches between consecutive windows, and the tail to clock-out (or to
// now for a session still open). Time between two separate clocked
// sessions is not idle; it is simply unclocked. Gaps at or under the
// threshold are absorbed into active time as ordinary micro-pauses.
func DetectIdle(
	employeeID, scoreDate string,
	intervals []event.ClockInterval,
	events []event.ActivityEvent,
	thresholdMinutes int,
	now time.Time,
) []score.IdlePeriod {
	timeline := mergeActivityWindows(events)

	var periods []score.IdlePeriod
	record := func(start, end time.Time) {
		if !end.After(start) {
			return
		}
		mins := int(end.Sub(start).Minutes())
		if mins <= thresholdMinutes {
			return
		}
		periods = append(periods, score.IdlePeriod{
			ID:              uuid.NewString(),
			EmployeeID:      employeeID,
			ScoreDate:       scoreDate,
			StartTime:       start,
			EndTime:         end,
			DurationMinutes: mins,
		})
	}

	for _, iv := range intervals {
		sessionEnd := iv.EndOrNow(now)
		if !sessionEnd.After(iv.ClockIn) {
			continue
		}

		cursor := iv.ClockIn
		for _, span := range timeline {
			if !span.End.After(iv.ClockIn) {
				continue
			}
			if !span.Start.Before(sessionEnd) {
				break
			}
			// Clip the window to the session before measuring the gap.
			start := span.Start
			if start.Before(iv.ClockIn) {
				start = iv.ClockIn
			}
			record(cursor, start)

			end := span.End
			if end.After(sessionEnd) {
				end = sessionEnd
			}
			if end.After(cursor) {
				cursor = end
			}
		}
		record(cursor, sessionEnd)
	}

	return periods
}
