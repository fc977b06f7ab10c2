package postgresql

import (
	"context"
	"fmt"

	"github.com/workpulse/prodscore-engine-go/internal/domain/role"
	"github.com/workpulse/prodscore-engine-go/internal/pkg/database"
)

type roleConfigRepository struct {
	db *database.DB
}

// ListAll implements role.ConfigRepository.
func (r *roleConfigRepository) ListAll(ctx context.Context) ([]role.Config, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT role_id, points_per_item, monthly_target, idle_threshold_minutes, updated_at
		FROM role_configs
		ORDER BY role_id
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query role configs: %w", err)
	}
	defer rows.Close()

	var configs []role.Config
	for rows.Next() {
		var cfg role.Config
		err := rows.Scan(&cfg.RoleID, &cfg.PointsPerItem, &cfg.MonthlyTarget, &cfg.IdleThresholdMinutes, &cfg.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role config: %w", err)
		}
		configs = append(configs, cfg)
	}

	return configs, nil
}

func NewRoleConfigRepository(db *database.DB) role.ConfigRepository {
	return &roleConfigRepository{db: db}
}
