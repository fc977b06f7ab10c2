package score

import (
	"time"
)

// DailyScore is the per-employee, per-local-date aggregate owned by the
// engine. score_date is a local calendar date, never a UTC timestamp.
type DailyScore struct {
	ID             string
	EmployeeID     string
	ScoreDate      string // YYYY-MM-DD in the employee's timezone
	ClockedMinutes int
	ActiveMinutes  int
	IdleMinutes    int
	ItemsProcessed int
	EfficiencyRate float64
	PointsEarned   float64
	RoleUnmatched  bool
	HasAnomaly     bool
	IsFinalized    bool
	Notes          string
	UpdatedAt      time.Time
}

// IdlePeriod is a contiguous gap longer than the idle threshold inside a
// clocked session. The full set for a date is recomputed, never patched.
type IdlePeriod struct {
	ID              string
	EmployeeID      string
	ScoreDate       string
	StartTime       time.Time
	EndTime         time.Time
	DurationMinutes int
}

// PendingPair is one (employee, local date) recompute unit discovered by
// the scheduler's dirty selection.
type PendingPair struct {
	EmployeeID string
	ScoreDate  string
	TimeZone   string
}

// ActiveTimeResult is the output of the active-time reconciliation step.
type ActiveTimeResult struct {
	ClockedMinutes int
	ActiveMinutes  int
	IdleMinutes    int
	EfficiencyRate float64
	IdlePeriods    []IdlePeriod
	// HasAnomaly is set when activity was recorded outside every clock
	// interval for the date: logged, counted for items, excluded from
	// active time.
	HasAnomaly bool
}

// RunStatus records the last outcome per scheduler job; the downstream
// dashboard uses it as its stale-data indicator.
type RunStatus struct {
	JobName   string
	LastRunAt time.Time
	LastError string
}
