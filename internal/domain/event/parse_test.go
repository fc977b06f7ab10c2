package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp_RFC3339(t *testing.T) {
	t.Parallel()

	got, err := ParseTimestamp("2024-06-14T08:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 14, 8, 30, 0, 0, time.UTC), got)
}

func TestParseTimestamp_WithOffset(t *testing.T) {
	t.Parallel()

	got, err := ParseTimestamp("2024-06-14T10:30:00+02:00")
	require.NoError(t, err)

	// Normalized to UTC.
	assert.Equal(t, time.Date(2024, 6, 14, 8, 30, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestParseTimestamp_BareDatetime(t *testing.T) {
	t.Parallel()

	got, err := ParseTimestamp("2024-06-14 08:30:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 14, 8, 30, 0, 0, time.UTC), got)
}

func TestParseTimestamp_Rejects(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "  ", "14/06/2024", "not-a-time", "1718354400"} {
		_, err := ParseTimestamp(raw)
		assert.Error(t, err, "input %q", raw)
	}
}

func TestActivityEventValidate(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 6, 14, 8, 0, 0, 0, time.UTC)

	ev := ActivityEvent{EmployeeID: "emp-1", WindowStart: start, WindowEnd: start.Add(time.Hour), ItemsCount: 3}
	assert.NoError(t, ev.Validate())

	ev.WindowEnd = start.Add(-time.Minute)
	assert.ErrorIs(t, ev.Validate(), ErrInvalidWindow)

	ev.WindowEnd = start
	ev.ItemsCount = -1
	assert.ErrorIs(t, ev.Validate(), ErrNegativeItems)

	ev.ItemsCount = 0
	ev.EmployeeID = ""
	assert.ErrorIs(t, ev.Validate(), ErrMissingEmployee)
}

func TestClockIntervalValidate(t *testing.T) {
	t.Parallel()

	in := time.Date(2024, 6, 14, 8, 0, 0, 0, time.UTC)
	out := in.Add(8 * time.Hour)

	ci := ClockInterval{EmployeeID: "emp-1", ClockIn: in, ClockOut: &out}
	assert.NoError(t, ci.Validate())

	// Open interval is valid.
	ci.ClockOut = nil
	assert.NoError(t, ci.Validate())

	bad := in.Add(-time.Minute)
	ci.ClockOut = &bad
	assert.ErrorIs(t, ci.Validate(), ErrInvalidInterval)
}

func TestClockIntervalEndOrNow(t *testing.T) {
	t.Parallel()

	in := time.Date(2024, 6, 14, 8, 0, 0, 0, time.UTC)
	now := in.Add(3 * time.Hour)

	open := ClockInterval{EmployeeID: "emp-1", ClockIn: in}
	assert.True(t, open.IsOpen())
	assert.Equal(t, now, open.EndOrNow(now))

	out := in.Add(8 * time.Hour)
	closed := ClockInterval{EmployeeID: "emp-1", ClockIn: in, ClockOut: &out}
	assert.False(t, closed.IsOpen())
	assert.Equal(t, out, closed.EndOrNow(now))
}
