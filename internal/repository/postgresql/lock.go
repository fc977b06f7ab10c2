package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/workpulse/prodscore-engine-go/internal/domain/score"
	"github.com/workpulse/prodscore-engine-go/internal/pkg/database"
)

type lockRepository struct {
	db *database.DB
}

// Acquire implements score.LockRepository. The insert takes the lease when
// no row exists; the conflict update steals it only when the previous
// lease expired or we already hold it. A single statement keeps the
// acquire race-free without advisory locks.
func (r *lockRepository) Acquire(ctx context.Context, name, holder string, ttl time.Duration) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO engine_locks (name, holder, acquired_at, expires_at)
		VALUES ($1, $2, NOW(), NOW() + make_interval(secs => $3))
		ON CONFLICT (name) DO UPDATE SET
			holder      = EXCLUDED.holder,
			acquired_at = EXCLUDED.acquired_at,
			expires_at  = EXCLUDED.expires_at
		WHERE engine_locks.expires_at < NOW()
		   OR engine_locks.holder = EXCLUDED.holder
		RETURNING holder
	`

	var got string
	err := q.QueryRow(ctx, query, name, holder, ttl.Seconds()).Scan(&got)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return score.ErrLockHeld
		}
		return fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}

	return nil
}

// Release implements score.LockRepository. Only the current holder may
// release; an expired lease stolen by someone else is left alone.
func (r *lockRepository) Release(ctx context.Context, name, holder string) error {
	q := GetQuerier(ctx, r.db)

	query := `DELETE FROM engine_locks WHERE name = $1 AND holder = $2`

	if _, err := q.Exec(ctx, query, name, holder); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", name, err)
	}

	return nil
}

func NewLockRepository(db *database.DB) score.LockRepository {
	return &lockRepository{db: db}
}
