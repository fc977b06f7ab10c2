package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/workpulse/prodscore-engine-go/internal/domain/score"
	"github.com/workpulse/prodscore-engine-go/internal/pkg/database"
)

type dailyScoreRepository struct {
	db *database.DB
}

const dailyScoreColumns = `
	id, employee_id, to_char(score_date, 'YYYY-MM-DD'),
	clocked_minutes, active_minutes, idle_minutes, items_processed,
	efficiency_rate, points_earned, role_unmatched, has_anomaly,
	is_finalized, notes, updated_at`

func scanDailyScore(row pgx.Row) (score.DailyScore, error) {
	var s score.DailyScore
	err := row.Scan(
		&s.ID, &s.EmployeeID, &s.ScoreDate,
		&s.ClockedMinutes, &s.ActiveMinutes, &s.IdleMinutes, &s.ItemsProcessed,
		&s.EfficiencyRate, &s.PointsEarned, &s.RoleUnmatched, &s.HasAnomaly,
		&s.IsFinalized, &s.Notes, &s.UpdatedAt,
	)
	return s, err
}

// GetByEmployeeAndDate implements score.DailyScoreRepository.
func (r *dailyScoreRepository) GetByEmployeeAndDate(ctx context.Context, employeeID, scoreDate string) (score.DailyScore, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + dailyScoreColumns + `
		FROM daily_scores
		WHERE employee_id = $1 AND score_date = $2
	`

	s, err := scanDailyScore(q.QueryRow(ctx, query, employeeID, scoreDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return score.DailyScore{}, score.ErrScoreNotFound
		}
		return score.DailyScore{}, fmt.Errorf("failed to get daily score: %w", err)
	}

	return s, nil
}

// Upsert implements score.DailyScoreRepository. The conflict update is
// guarded on is_finalized so a finalized row can never be overwritten,
// even when two runs race.
func (r *dailyScoreRepository) Upsert(ctx context.Context, s score.DailyScore) (score.DailyScore, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO daily_scores (
			employee_id, score_date, clocked_minutes, active_minutes,
			idle_minutes, items_processed, efficiency_rate, points_earned,
			role_unmatched, has_anomaly, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (employee_id, score_date) DO UPDATE SET
			clocked_minutes = EXCLUDED.clocked_minutes,
			active_minutes  = EXCLUDED.active_minutes,
			idle_minutes    = EXCLUDED.idle_minutes,
			items_processed = EXCLUDED.items_processed,
			efficiency_rate = EXCLUDED.efficiency_rate,
			points_earned   = EXCLUDED.points_earned,
			role_unmatched  = EXCLUDED.role_unmatched,
			has_anomaly     = EXCLUDED.has_anomaly,
			updated_at      = NOW()
		WHERE daily_scores.is_finalized = FALSE
		RETURNING ` + dailyScoreColumns + `
	`

	persisted, err := scanDailyScore(q.QueryRow(ctx, query,
		s.EmployeeID, s.ScoreDate, s.ClockedMinutes, s.ActiveMinutes,
		s.IdleMinutes, s.ItemsProcessed, s.EfficiencyRate, s.PointsEarned,
		s.RoleUnmatched, s.HasAnomaly,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return score.DailyScore{}, score.ErrScoreFinalized
		}
		return score.DailyScore{}, fmt.Errorf("failed to upsert daily score: %w", err)
	}

	return persisted, nil
}

// ListByDateRange implements score.DailyScoreRepository.
func (r *dailyScoreRepository) ListByDateRange(ctx context.Context, employeeID string, startDate, endDate string) ([]score.DailyScore, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "score_date >= $1 AND score_date <= $2"
	args := []interface{}{startDate, endDate}
	if employeeID != "" {
		baseWhere += " AND employee_id = $3"
		args = append(args, employeeID)
	}

	query := `
		SELECT ` + dailyScoreColumns + `
		FROM daily_scores
		WHERE ` + baseWhere + `
		ORDER BY score_date, employee_id
	`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily scores: %w", err)
	}
	defer rows.Close()

	var scores []score.DailyScore
	for rows.Next() {
		s, err := scanDailyScore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily score: %w", err)
		}
		scores = append(scores, s)
	}

	return scores, nil
}

// FinalizeDate implements score.DailyScoreRepository. A nil employee list
// finalizes every open score on the date.
func (r *dailyScoreRepository) FinalizeDate(ctx context.Context, employeeIDs []string, scoreDate string, note string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE daily_scores
		SET is_finalized = TRUE,
		    notes = CASE WHEN notes = '' THEN $1 ELSE notes || E'\n' || $1 END,
		    updated_at = NOW()
		WHERE score_date = $2
		  AND is_finalized = FALSE
	`
	args := []interface{}{note, scoreDate}
	if len(employeeIDs) > 0 {
		query += " AND employee_id = ANY($3)"
		args = append(args, employeeIDs)
	}

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to finalize daily scores: %w", err)
	}

	return tag.RowsAffected(), nil
}

// Reopen implements score.DailyScoreRepository.
func (r *dailyScoreRepository) Reopen(ctx context.Context, employeeID, scoreDate string, note string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE daily_scores
		SET is_finalized = FALSE,
		    notes = CASE WHEN notes = '' THEN $1 ELSE notes || E'\n' || $1 END,
		    updated_at = NOW()
		WHERE employee_id = $2
		  AND score_date = $3
		  AND is_finalized = TRUE
	`

	tag, err := q.Exec(ctx, query, note, employeeID, scoreDate)
	if err != nil {
		return fmt.Errorf("failed to reopen daily score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return score.ErrScoreNotFound
	}

	return nil
}

// ListPendingRecompute implements score.DailyScoreRepository. It projects
// every changed raw event onto its local calendar date using the owning
// employee's timezone, then keeps pairs whose score is missing or older
// than the newest raw change. Open clock intervals stay pending so the
// trailing idle gap keeps refreshing. Finalized dates are never selected.
func (r *dailyScoreRepository) ListPendingRecompute(ctx context.Context, limit int) ([]score.PendingPair, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		WITH dirty AS (
			SELECT ae.employee_id,
			       (ae.window_start AT TIME ZONE e.time_zone)::date AS score_date,
			       MAX(ae.updated_at) AS changed_at
			FROM activity_events ae
			JOIN employees e ON e.id = ae.employee_id AND e.is_active
			GROUP BY 1, 2
			UNION ALL
			SELECT ae.employee_id,
			       (ae.window_end AT TIME ZONE e.time_zone)::date,
			       MAX(ae.updated_at)
			FROM activity_events ae
			JOIN employees e ON e.id = ae.employee_id AND e.is_active
			GROUP BY 1, 2
			UNION ALL
			SELECT ci.employee_id,
			       (ci.clock_in AT TIME ZONE e.time_zone)::date,
			       MAX(ci.updated_at)
			FROM clock_intervals ci
			JOIN employees e ON e.id = ci.employee_id AND e.is_active
			GROUP BY 1, 2
			UNION ALL
			SELECT ci.employee_id,
			       (ci.clock_out AT TIME ZONE e.time_zone)::date,
			       MAX(ci.updated_at)
			FROM clock_intervals ci
			JOIN employees e ON e.id = ci.employee_id AND e.is_active
			WHERE ci.clock_out IS NOT NULL
			GROUP BY 1, 2
			UNION ALL
			SELECT ci.employee_id,
			       (NOW() AT TIME ZONE e.time_zone)::date,
			       NOW()
			FROM clock_intervals ci
			JOIN employees e ON e.id = ci.employee_id AND e.is_active
			WHERE ci.clock_out IS NULL
		)
		SELECT d.employee_id,
		       to_char(d.score_date, 'YYYY-MM-DD'),
		       e.time_zone
		FROM dirty d
		JOIN employees e ON e.id = d.employee_id
		LEFT JOIN daily_scores ds
		       ON ds.employee_id = d.employee_id AND ds.score_date = d.score_date
		GROUP BY d.employee_id, d.score_date, e.time_zone, ds.id, ds.is_finalized, ds.updated_at
		HAVING ds.id IS NULL OR (NOT ds.is_finalized AND MAX(d.changed_at) > ds.updated_at)
		ORDER BY d.score_date, d.employee_id
		LIMIT $1
	`

	rows, err := q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending recompute pairs: %w", err)
	}
	defer rows.Close()

	var pairs []score.PendingPair
	for rows.Next() {
		var p score.PendingPair
		if err := rows.Scan(&p.EmployeeID, &p.ScoreDate, &p.TimeZone); err != nil {
			return nil, fmt.Errorf("failed to scan pending pair: %w", err)
		}
		pairs = append(pairs, p)
	}

	return pairs, nil
}

func NewDailyScoreRepository(db *database.DB) score.DailyScoreRepository {
	return &dailyScoreRepository{db: db}
}
