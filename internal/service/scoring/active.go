package scoring

import (
	"time"

	"github.com/workpulse/prodscore-engine-go/internal/domain/event"
	"github.com/workpulse/prodscore-engine-go/internal/domain/score"
	"github.com/workpulse/prodscore-engine-go/internal/pkg/timeutil"
)

// clipInterval bounds a clocked session to the resolved UTC day window. A
// session spanning midnight contributes only the portion inside the window.
// Returns a closed interval and false when nothing overlaps.
func clipInterval(iv event.ClockInterval, bounds timeutil.DayBounds, now time.Time) (event.ClockInterval, bool) {
	end := iv.EndOrNow(now)

	start := iv.ClockIn
	if start.Before(bounds.Start) {
		start = bounds.Start
	}
	if end.After(bounds.End) {
		end = bounds.End
	}
	if !end.After(start) {
		return event.ClockInterval{}, false
	}

	// The clipped interval is always closed: an open session clips to now
	// (its ongoing trailing gap is recomputed fresh every run) or to the
	// day boundary, whichever comes first.
	endCopy := end
	return event.ClockInterval{
		ID:         iv.ID,
		EmployeeID: iv.EmployeeID,
		ClockIn:    start,
		ClockOut:   &endCopy,
	}, true
}

// overlapsAnyInterval reports whether the activity window touches at least
// one clocked session.
func overlapsAnyInterval(ev event.ActivityEvent, intervals []event.ClockInterval, now time.Time) bool {
	for _, iv := range intervals {
		end := iv.EndOrNow(now)
		if ev.WindowStart.Before(end) && ev.WindowEnd.After(iv.ClockIn) {
			return true
		}
		// Instantaneous events still count as inside when they land on the
		// session.
		if ev.WindowStart.Equal(ev.WindowEnd) && !ev.WindowStart.Before(iv.ClockIn) && ev.WindowStart.Before(end) {
			return true
		}
	}
	return false
}

// ComputeActiveTime reconciles clocked sessions, activity windows and idle
// gaps into the per-day minute totals. Activity recorded outside every
// clocked session flags an anomaly but neither extends clocked time nor is
// dropped from item counts (the caller still sums its items).
func ComputeActiveTime(
	employeeID, scoreDate string,
	intervals []event.ClockInterval,
	events []event.ActivityEvent,
	bounds timeutil.DayBounds,
	thresholdMinutes int,
	now time.Time,
) score.ActiveTimeResult {
	clipped := make([]event.ClockInterval, 0, len(intervals))
	clockedMinutes := 0
	for _, iv := range intervals {
		c, ok := clipInterval(iv, bounds, now)
		if !ok {
			continue
		}
		clipped = append(clipped, c)
		clockedMinutes += int(c.EndOrNow(now).Sub(c.ClockIn).Minutes())
	}

	idlePeriods := DetectIdle(employeeID, scoreDate, clipped, events, thresholdMinutes, now)
	idleMinutes := 0
	for _, p := range idlePeriods {
		idleMinutes += p.DurationMinutes
	}

	activeMinutes := clockedMinutes - idleMinutes
	if activeMinutes < 0 {
		activeMinutes = 0
	}

	efficiency := 0.0
	if clockedMinutes > 0 {
		efficiency = float64(activeMinutes) / float64(clockedMinutes)
	}

	hasAnomaly := false
	for _, ev := range events {
		if !overlapsAnyInterval(ev, intervals, now) {
			hasAnomaly = true
			break
		}
	}

	return score.ActiveTimeResult{
		ClockedMinutes: clockedMinutes,
		ActiveMinutes:  activeMinutes,
		IdleMinutes:    idleMinutes,
		EfficiencyRate: efficiency,
		IdlePeriods:    idlePeriods,
		HasAnomaly:     hasAnomaly,
	}
}
