package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/workpulse/prodscore-engine-go/internal/domain/score"
	"github.com/workpulse/prodscore-engine-go/internal/pkg/database"
)

type runStatusRepository struct {
	db *database.DB
}

// RecordRun implements score.RunStatusRepository.
func (r *runStatusRepository) RecordRun(ctx context.Context, jobName string, ranAt time.Time, runErr error) error {
	q := GetQuerier(ctx, r.db)

	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}

	query := `
		INSERT INTO engine_runs (job_name, last_run_at, last_error)
		VALUES ($1, $2, $3)
		ON CONFLICT (job_name) DO UPDATE SET
			last_run_at = EXCLUDED.last_run_at,
			last_error  = EXCLUDED.last_error
	`

	if _, err := q.Exec(ctx, query, jobName, ranAt, errText); err != nil {
		return fmt.Errorf("failed to record run for %s: %w", jobName, err)
	}

	return nil
}

// ListRuns implements score.RunStatusRepository.
func (r *runStatusRepository) ListRuns(ctx context.Context) ([]score.RunStatus, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT job_name, last_run_at, last_error FROM engine_runs ORDER BY job_name`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query engine runs: %w", err)
	}
	defer rows.Close()

	var runs []score.RunStatus
	for rows.Next() {
		var rs score.RunStatus
		if err := rows.Scan(&rs.JobName, &rs.LastRunAt, &rs.LastError); err != nil {
			return nil, fmt.Errorf("failed to scan engine run: %w", err)
		}
		runs = append(runs, rs)
	}

	return runs, nil
}

func NewRunStatusRepository(db *database.DB) score.RunStatusRepository {
	return &runStatusRepository{db: db}
}
