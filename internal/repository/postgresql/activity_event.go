package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/workpulse/prodscore-engine-go/internal/domain/event"
	"github.com/workpulse/prodscore-engine-go/internal/pkg/database"
)

type activityEventRepository struct {
	db *database.DB
}

// ListByEmployeeAndRange implements event.ActivityEventRepository.
func (r *activityEventRepository) ListByEmployeeAndRange(ctx context.Context, employeeID string, start, end time.Time) ([]event.ActivityEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, window_start, window_end, activity_type,
		       items_count, role_id, source, created_at, updated_at
		FROM activity_events
		WHERE employee_id = $1
		  AND window_start < $3
		  AND window_end >= $2
		ORDER BY window_start
	`

	rows, err := q.Query(ctx, query, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity events: %w", err)
	}
	defer rows.Close()

	var events []event.ActivityEvent
	for rows.Next() {
		var ev event.ActivityEvent
		err := rows.Scan(
			&ev.ID, &ev.EmployeeID, &ev.WindowStart, &ev.WindowEnd, &ev.ActivityType,
			&ev.ItemsCount, &ev.RoleID, &ev.Source, &ev.CreatedAt, &ev.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity event: %w", err)
		}
		events = append(events, ev)
	}

	return events, nil
}

// Upsert implements event.ActivityEventWriter. Conflicts on the producer
// key (employee_id, window_start, source) refresh the row in place, which
// bumps updated_at and makes the date show up in the dirty selection.
func (r *activityEventRepository) Upsert(ctx context.Context, ev event.ActivityEvent) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO activity_events (
			employee_id, window_start, window_end, activity_type,
			items_count, role_id, source, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (employee_id, window_start, source) DO UPDATE SET
			window_end    = EXCLUDED.window_end,
			activity_type = EXCLUDED.activity_type,
			items_count   = EXCLUDED.items_count,
			role_id       = EXCLUDED.role_id,
			updated_at    = NOW()
	`

	_, err := q.Exec(ctx, query,
		ev.EmployeeID, ev.WindowStart, ev.WindowEnd, ev.ActivityType,
		ev.ItemsCount, ev.RoleID, ev.Source,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert activity event: %w", err)
	}

	return nil
}

func NewActivityEventRepository(db *database.DB) event.ActivityEventRepository {
	return &activityEventRepository{db: db}
}

func NewActivityEventWriter(db *database.DB) event.ActivityEventWriter {
	return &activityEventRepository{db: db}
}
