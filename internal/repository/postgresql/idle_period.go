package postgresql

import (
	"context"
	"fmt"

	"github.com/workpulse/prodscore-engine-go/internal/domain/score"
	"github.com/workpulse/prodscore-engine-go/internal/pkg/database"
)

type idlePeriodRepository struct {
	db *database.DB
}

// ReplaceForDate implements score.IdlePeriodRepository. Delete-then-insert
// keeps recomputation idempotent; partial patches are never attempted.
func (r *idlePeriodRepository) ReplaceForDate(ctx context.Context, employeeID, scoreDate string, periods []score.IdlePeriod) error {
	q := GetQuerier(ctx, r.db)

	deleteQuery := `DELETE FROM idle_periods WHERE employee_id = $1 AND score_date = $2`
	if _, err := q.Exec(ctx, deleteQuery, employeeID, scoreDate); err != nil {
		return fmt.Errorf("failed to delete idle periods: %w", err)
	}

	insertQuery := `
		INSERT INTO idle_periods (
			id, employee_id, score_date, start_time, end_time, duration_minutes
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, p := range periods {
		_, err := q.Exec(ctx, insertQuery,
			p.ID, p.EmployeeID, p.ScoreDate, p.StartTime, p.EndTime, p.DurationMinutes)
		if err != nil {
			return fmt.Errorf("failed to insert idle period: %w", err)
		}
	}

	return nil
}

// ListByEmployeeAndDate implements score.IdlePeriodRepository.
func (r *idlePeriodRepository) ListByEmployeeAndDate(ctx context.Context, employeeID, scoreDate string) ([]score.IdlePeriod, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, to_char(score_date, 'YYYY-MM-DD'),
		       start_time, end_time, duration_minutes
		FROM idle_periods
		WHERE employee_id = $1 AND score_date = $2
		ORDER BY start_time
	`

	rows, err := q.Query(ctx, query, employeeID, scoreDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query idle periods: %w", err)
	}
	defer rows.Close()

	var periods []score.IdlePeriod
	for rows.Next() {
		var p score.IdlePeriod
		err := rows.Scan(&p.ID, &p.EmployeeID, &p.ScoreDate, &p.StartTime, &p.EndTime, &p.DurationMinutes)
		if err != nil {
			return nil, fmt.Errorf("failed to scan idle period: %w", err)
		}
		periods = append(periods, p)
	}

	return periods, nil
}

func NewIdlePeriodRepository(db *database.DB) score.IdlePeriodRepository {
	return &idlePeriodRepository{db: db}
}
