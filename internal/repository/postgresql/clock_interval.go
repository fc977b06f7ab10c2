package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/workpulse/prodscore-engine-go/internal/domain/event"
	"github.com/workpulse/prodscore-engine-go/internal/pkg/database"
)

type clockIntervalRepository struct {
	db *database.DB
}

// ListOverlappingRange implements event.ClockIntervalRepository. An open
// interval overlaps every range starting before now, since it is ongoing.
func (r *clockIntervalRepository) ListOverlappingRange(ctx context.Context, employeeID string, start, end time.Time) ([]event.ClockInterval, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, clock_in, clock_out, created_at, updated_at
		FROM clock_intervals
		WHERE employee_id = $1
		  AND clock_in < $3
		  AND (clock_out IS NULL OR clock_out >= $2)
		ORDER BY clock_in
	`

	rows, err := q.Query(ctx, query, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query clock intervals: %w", err)
	}
	defer rows.Close()

	var intervals []event.ClockInterval
	for rows.Next() {
		var iv event.ClockInterval
		err := rows.Scan(&iv.ID, &iv.EmployeeID, &iv.ClockIn, &iv.ClockOut, &iv.CreatedAt, &iv.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clock interval: %w", err)
		}
		intervals = append(intervals, iv)
	}

	return intervals, nil
}

// Upsert implements event.ClockIntervalWriter. Conflicts on the producer
// key (employee_id, clock_in) update clock_out, which is how an open
// session is closed by a later submission.
func (r *clockIntervalRepository) Upsert(ctx context.Context, iv event.ClockInterval) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO clock_intervals (employee_id, clock_in, clock_out, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (employee_id, clock_in) DO UPDATE SET
			clock_out  = EXCLUDED.clock_out,
			updated_at = NOW()
	`

	if _, err := q.Exec(ctx, query, iv.EmployeeID, iv.ClockIn, iv.ClockOut); err != nil {
		return fmt.Errorf("failed to upsert clock interval: %w", err)
	}

	return nil
}

func NewClockIntervalRepository(db *database.DB) event.ClockIntervalRepository {
	return &clockIntervalRepository{db: db}
}

func NewClockIntervalWriter(db *database.DB) event.ClockIntervalWriter {
	return &clockIntervalRepository{db: db}
}
