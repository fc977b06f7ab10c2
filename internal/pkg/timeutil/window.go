package timeutil

import (
	"fmt"
	"time"
)

// DateLayout is the canonical local calendar date format used for score dates.
const DateLayout = "2006-01-02"

// DayBounds is the half-open UTC interval [Start, End) covering one local
// calendar day. On DST transition days the span is not 24 hours.
type DayBounds struct {
	Start time.Time
	End   time.Time
}

// Duration returns the UTC span of the local day.
func (b DayBounds) Duration() time.Duration {
	return b.End.Sub(b.Start)
}

// Contains reports whether t falls inside the half-open interval.
func (b DayBounds) Contains(t time.Time) bool {
	return !t.Before(b.Start) && t.Before(b.End)
}

// ResolveDayBoundsUTC converts a local calendar date in the given IANA zone
// to its UTC half-open interval. Both the event fetch range and the
// score_date bucketing must come from this single conversion; mixing two
// conversions is how scores drift off by a day around DST transitions.
func ResolveDayBoundsUTC(localDate string, timeZone string) (DayBounds, error) {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return DayBounds{}, fmt.Errorf("failed to resolve timezone %q: %w", timeZone, err)
	}

	day, err := time.ParseInLocation(DateLayout, localDate, loc)
	if err != nil {
		return DayBounds{}, fmt.Errorf("invalid local date %q: %w", localDate, err)
	}

	// AddDate goes through the location's rules, so the next local midnight
	// lands correctly even when the day is 23 or 25 hours long.
	next := day.AddDate(0, 0, 1)

	return DayBounds{Start: day.UTC(), End: next.UTC()}, nil
}

// LocalDateOf projects a UTC instant onto its local calendar date in the
// given zone. The inverse of ResolveDayBoundsUTC for bucketing purposes.
func LocalDateOf(t time.Time, timeZone string) (string, error) {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return "", fmt.Errorf("failed to resolve timezone %q: %w", timeZone, err)
	}
	return t.In(loc).Format(DateLayout), nil
}
