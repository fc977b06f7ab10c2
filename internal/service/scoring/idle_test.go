package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workpulse/prodscore-engine-go/internal/domain/event"
)

func utc(hour, min int) time.Time {
	return time.Date(2024, 6, 14, hour, min, 0, 0, time.UTC)
}

func closedInterval(in, out time.Time) event.ClockInterval {
	return event.ClockInterval{EmployeeID: "emp-1", ClockIn: in, ClockOut: &out}
}

func window(start, end time.Time, items int) event.ActivityEvent {
	return event.ActivityEvent{
		EmployeeID:  "emp-1",
		WindowStart: start,
		WindowEnd:   end,
		ItemsCount:  items,
	}
}

func TestDetectIdle_GapsBelowThresholdAbsorbed(t *testing.T) {
	t.Parallel()

	intervals := []event.ClockInterval{closedInterval(utc(8, 0), utc(16, 0))}
	events := []event.ActivityEvent{
		window(utc(8, 0), utc(8, 10), 0),
		window(utc(8, 20), utc(12, 0), 0),
		window(utc(12, 5), utc(16, 0), 0),
	}

	periods := DetectIdle("emp-1", "2024-06-14", intervals, events, 15, utc(23, 0))
	assert.Empty(t, periods, "all gaps are under 15 minutes")
}

func TestDetectIdle_ExactThresholdGapAbsorbed(t *testing.T) {
	t.Parallel()

	// Gaps of 10 and exactly 5 minutes: at threshold 5 only the strictly
	// longer 10-minute gap becomes idle, the boundary gap is a micro-pause.
	intervals := []event.ClockInterval{closedInterval(utc(8, 0), utc(16, 0))}
	events := []event.ActivityEvent{
		window(utc(8, 0), utc(8, 10), 0),
		window(utc(8, 20), utc(12, 0), 0),
		window(utc(12, 5), utc(16, 0), 0),
	}

	periods := DetectIdle("emp-1", "2024-06-14", intervals, events, 5, utc(23, 0))
	require.Len(t, periods, 1)

	assert.Equal(t, utc(8, 10), periods[0].StartTime)
	assert.Equal(t, utc(8, 20), periods[0].EndTime)
	assert.Equal(t, 10, periods[0].DurationMinutes)
}

func TestDetectIdle_LeadingAndTrailingGaps(t *testing.T) {
	t.Parallel()

	intervals := []event.ClockInterval{closedInterval(utc(8, 0), utc(16, 0))}
	events := []event.ActivityEvent{window(utc(9, 0), utc(15, 0), 0)}

	periods := DetectIdle("emp-1", "2024-06-14", intervals, events, 30, utc(23, 0))
	require.Len(t, periods, 2)

	assert.Equal(t, utc(8, 0), periods[0].StartTime)
	assert.Equal(t, utc(9, 0), periods[0].EndTime)
	assert.Equal(t, 60, periods[0].DurationMinutes)

	assert.Equal(t, utc(15, 0), periods[1].StartTime)
	assert.Equal(t, utc(16, 0), periods[1].EndTime)
}

func TestDetectIdle_NoActivityWholeSessionIdle(t *testing.T) {
	t.Parallel()

	intervals := []event.ClockInterval{closedInterval(utc(8, 0), utc(16, 0))}

	periods := DetectIdle("emp-1", "2024-06-14", intervals, nil, 15, utc(23, 0))
	require.Len(t, periods, 1)
	assert.Equal(t, 480, periods[0].DurationMinutes)
}

func TestDetectIdle_OpenIntervalTrailingGapUsesNow(t *testing.T) {
	t.Parallel()

	intervals := []event.ClockInterval{{EmployeeID: "emp-1", ClockIn: utc(8, 0)}}
	events := []event.ActivityEvent{window(utc(8, 0), utc(10, 0), 0)}

	periods := DetectIdle("emp-1", "2024-06-14", intervals, events, 15, utc(10, 45))
	require.Len(t, periods, 1)
	assert.Equal(t, utc(10, 0), periods[0].StartTime)
	assert.Equal(t, utc(10, 45), periods[0].EndTime)
	assert.Equal(t, 45, periods[0].DurationMinutes)

	// Rerunning later extends the same trailing gap; it is never frozen
	// until the clock-out lands.
	periods = DetectIdle("emp-1", "2024-06-14", intervals, events, 15, utc(11, 30))
	require.Len(t, periods, 1)
	assert.Equal(t, 90, periods[0].DurationMinutes)
}

func TestDetectIdle_GapBetweenSessionsIsNotIdle(t *testing.T) {
	t.Parallel()

	// Split shift: 08:00-12:00 and 14:00-18:00. The 2h between sessions
	// is unclocked, not idle.
	intervals := []event.ClockInterval{
		closedInterval(utc(8, 0), utc(12, 0)),
		closedInterval(utc(14, 0), utc(18, 0)),
	}
	events := []event.ActivityEvent{
		window(utc(8, 0), utc(12, 0), 0),
		window(utc(14, 0), utc(18, 0), 0),
	}

	periods := DetectIdle("emp-1", "2024-06-14", intervals, events, 15, utc(23, 0))
	assert.Empty(t, periods)
}

func TestDetectIdle_OverlappingWindowsMerged(t *testing.T) {
	t.Parallel()

	intervals := []event.ClockInterval{closedInterval(utc(8, 0), utc(12, 0))}
	events := []event.ActivityEvent{
		window(utc(8, 0), utc(9, 30), 0),
		window(utc(9, 0), utc(10, 0), 0),
		window(utc(9, 45), utc(11, 0), 0),
	}

	periods := DetectIdle("emp-1", "2024-06-14", intervals, events, 15, utc(23, 0))
	require.Len(t, periods, 1)
	assert.Equal(t, utc(11, 0), periods[0].StartTime)
	assert.Equal(t, utc(12, 0), periods[0].EndTime)
}

func TestDetectIdle_ActivityOutsideSessionIgnored(t *testing.T) {
	t.Parallel()

	intervals := []event.ClockInterval{closedInterval(utc(8, 0), utc(12, 0))}
	// Activity entirely before clock-in must not shrink the leading gap.
	events := []event.ActivityEvent{window(utc(6, 0), utc(7, 0), 0)}

	periods := DetectIdle("emp-1", "2024-06-14", intervals, events, 15, utc(23, 0))
	require.Len(t, periods, 1)
	assert.Equal(t, utc(8, 0), periods[0].StartTime)
	assert.Equal(t, utc(12, 0), periods[0].EndTime)
}

func TestMergeActivityWindows(t *testing.T) {
	t.Parallel()

	merged := mergeActivityWindows([]event.ActivityEvent{
		window(utc(10, 0), utc(11, 0), 0),
		window(utc(8, 0), utc(9, 0), 0),
		window(utc(8, 30), utc(9, 30), 0),
		window(utc(9, 30), utc(9, 45), 0), // touching merges
		window(utc(12, 0), utc(12, 0), 0), // zero length dropped
	})

	require.Len(t, merged, 2)
	assert.Equal(t, utc(8, 0), merged[0].Start)
	assert.Equal(t, utc(9, 45), merged[0].End)
	assert.Equal(t, utc(10, 0), merged[1].Start)
	assert.Equal(t, utc(11, 0), merged[1].End)
}
