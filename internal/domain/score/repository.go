package score

import (
	"context"
	"time"
)

// DailyScoreRepository persists the engine-owned daily aggregates.
type DailyScoreRepository interface {
	// GetByEmployeeAndDate retrieves one score row; ErrScoreNotFound when absent.
	GetByEmployeeAndDate(ctx context.Context, employeeID, scoreDate string) (DailyScore, error)

	// Upsert inserts or updates keyed on (employee_id, score_date).
	// is_finalized is never modified by an upsert.
	Upsert(ctx context.Context, s DailyScore) (DailyScore, error)

	// ListByDateRange returns scores for the downstream consumer contract:
	// filterable by employee and local-date range.
	ListByDateRange(ctx context.Context, employeeID string, startDate, endDate string) ([]DailyScore, error)

	// FinalizeDate marks every non-finalized score on scoreDate for the
	// given employees as finalized, appending note. Returns rows affected.
	FinalizeDate(ctx context.Context, employeeIDs []string, scoreDate string, note string) (int64, error)

	// Reopen clears is_finalized on one row, appending note.
	Reopen(ctx context.Context, employeeID, scoreDate string, note string) error

	// ListPendingRecompute discovers (employee, date) pairs whose raw
	// events changed after the stored score was last computed, skipping
	// finalized dates. Limited to limit pairs per call.
	ListPendingRecompute(ctx context.Context, limit int) ([]PendingPair, error)
}

// IdlePeriodRepository persists derived idle periods.
type IdlePeriodRepository interface {
	// ReplaceForDate deletes the existing set for (employeeID, scoreDate)
	// and inserts periods. Callers run it inside the recompute transaction.
	ReplaceForDate(ctx context.Context, employeeID, scoreDate string, periods []IdlePeriod) error

	// ListByEmployeeAndDate returns the stored set ordered by start_time.
	ListByEmployeeAndDate(ctx context.Context, employeeID, scoreDate string) ([]IdlePeriod, error)
}

// LockRepository is the lease-based mutual exclusion used by the batch
// scheduler. A crashed holder's lease expires after its TTL.
type LockRepository interface {
	// Acquire takes the named lease for holder; ErrLockHeld when an
	// unexpired lease belongs to someone else.
	Acquire(ctx context.Context, name, holder string, ttl time.Duration) error

	// Release drops the lease if holder still owns it.
	Release(ctx context.Context, name, holder string) error
}

// RunStatusRepository records per-job run outcomes for the status endpoint.
type RunStatusRepository interface {
	RecordRun(ctx context.Context, jobName string, ranAt time.Time, runErr error) error
	ListRuns(ctx context.Context) ([]RunStatus, error)
}
