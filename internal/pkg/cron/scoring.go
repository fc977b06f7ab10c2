package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/workpulse/prodscore-engine-go/internal/domain/employee"
	"github.com/workpulse/prodscore-engine-go/internal/domain/score"
	"github.com/workpulse/prodscore-engine-go/internal/pkg/timeutil"
	"github.com/workpulse/prodscore-engine-go/internal/service/scoring"
)

const (
	recomputeLockName = "scoring_recompute"
	finalizeLockName  = "scoring_finalize"

	recomputeJobName = "recompute_changed_scores"
	finalizeJobName  = "finalize_completed_days"
)

// ScoringJobs wires the scoring engine into the scheduler: the frequent
// recompute job and the daily finalization job. Both take the engine lease
// so at most one run of each is active across all processes; a crashed run
// frees itself when its lease TTL expires.
type ScoringJobs struct {
	scoringSvc   *scoring.Service
	scoreRepo    score.DailyScoreRepository
	employeeRepo employee.EmployeeRepository
	lockRepo     score.LockRepository
	runRepo      score.RunStatusRepository

	batchSize int
	lockTTL   time.Duration
	holder    string
	now       func() time.Time
}

func NewScoringJobs(
	scoringSvc *scoring.Service,
	scoreRepo score.DailyScoreRepository,
	employeeRepo employee.EmployeeRepository,
	lockRepo score.LockRepository,
	runRepo score.RunStatusRepository,
	batchSize int,
	lockTTL time.Duration,
) *ScoringJobs {
	return &ScoringJobs{
		scoringSvc:   scoringSvc,
		scoreRepo:    scoreRepo,
		employeeRepo: employeeRepo,
		lockRepo:     lockRepo,
		runRepo:      runRepo,
		batchSize:    batchSize,
		lockTTL:      lockTTL,
		holder:       uuid.NewString(),
		now:          time.Now,
	}
}

func (j *ScoringJobs) RegisterJobs(scheduler *Scheduler, recomputeInterval, finalizeInterval time.Duration) {
	scheduler.AddJob(recomputeJobName, recomputeInterval, j.RecomputeChangedScores)
	scheduler.AddJob(finalizeJobName, finalizeInterval, j.FinalizeCompletedDays)
}

// RecomputeChangedScores selects every (employee, date) pair whose raw
// events changed since the stored score was computed and recomputes them.
// One pair failing is logged and skipped; the pair stays pending for the
// next tick. A busy lease skips the whole tick.
func (j *ScoringJobs) RecomputeChangedScores(ctx context.Context) error {
	if err := j.lockRepo.Acquire(ctx, recomputeLockName, j.holder, j.lockTTL); err != nil {
		if errors.Is(err, score.ErrLockHeld) {
			slog.Debug("Cron: Recompute lease busy, skipping tick")
			return nil
		}
		return fmt.Errorf("failed to acquire recompute lease: %w", err)
	}
	defer func() {
		if err := j.lockRepo.Release(ctx, recomputeLockName, j.holder); err != nil {
			slog.Error("Cron: Failed to release recompute lease", "error", err)
		}
	}()

	pairs, err := j.scoreRepo.ListPendingRecompute(ctx, j.batchSize)
	if err != nil {
		j.recordRun(ctx, recomputeJobName, err)
		return fmt.Errorf("failed to select pending pairs: %w", err)
	}

	if len(pairs) == 0 {
		j.recordRun(ctx, recomputeJobName, nil)
		return nil
	}

	slog.Info("Cron: Recomputing changed scores", "pairs", len(pairs))

	recomputed := 0
	failed := 0
	for _, pair := range pairs {
		if ctx.Err() != nil {
			break
		}

		if _, err := j.scoringSvc.RecomputePair(ctx, pair); err != nil {
			// A date finalized mid-batch is not a failure; everything
			// else is isolated to the pair and retried next tick.
			if errors.Is(err, score.ErrScoreFinalized) {
				continue
			}
			failed++
			slog.Error("Cron: Failed to recompute pair",
				"employee_id", pair.EmployeeID,
				"score_date", pair.ScoreDate,
				"error", err)
			continue
		}
		recomputed++
	}

	slog.Info("Cron: Recompute batch done", "recomputed", recomputed, "failed", failed)
	j.recordRun(ctx, recomputeJobName, nil)
	return nil
}

// FinalizeCompletedDays closes the day that just ended, per timezone: for
// every zone whose local clock is in the midnight hour, all non-finalized
// scores for the previous local date become immutable, with an audit note.
func (j *ScoringJobs) FinalizeCompletedDays(ctx context.Context) error {
	if err := j.lockRepo.Acquire(ctx, finalizeLockName, j.holder, j.lockTTL); err != nil {
		if errors.Is(err, score.ErrLockHeld) {
			slog.Debug("Cron: Finalize lease busy, skipping tick")
			return nil
		}
		return fmt.Errorf("failed to acquire finalize lease: %w", err)
	}
	defer func() {
		if err := j.lockRepo.Release(ctx, finalizeLockName, j.holder); err != nil {
			slog.Error("Cron: Failed to release finalize lease", "error", err)
		}
	}()

	employees, err := j.employeeRepo.ListActive(ctx)
	if err != nil {
		j.recordRun(ctx, finalizeJobName, err)
		return fmt.Errorf("failed to list employees: %w", err)
	}

	byZone := make(map[string][]string)
	for _, emp := range employees {
		byZone[emp.TimeZone] = append(byZone[emp.TimeZone], emp.ID)
	}

	nowUTC := j.now().UTC()
	totalFinalized := int64(0)

	for zone, employeeIDs := range byZone {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			slog.Error("Cron: Unknown employee timezone, skipping zone", "timezone", zone, "error", err)
			continue
		}

		nowLocal := nowUTC.In(loc)
		// Only finalize during the first hour after local midnight.
		if nowLocal.Hour() != 0 {
			continue
		}

		yesterday := nowLocal.AddDate(0, 0, -1).Format(timeutil.DateLayout)
		note := fmt.Sprintf("finalized by scheduler at %s", nowUTC.Format(time.RFC3339))

		n, err := j.scoreRepo.FinalizeDate(ctx, employeeIDs, yesterday, note)
		if err != nil {
			slog.Error("Cron: Failed to finalize date",
				"score_date", yesterday,
				"timezone", zone,
				"error", err)
			continue
		}
		if n > 0 {
			slog.Info("Cron: Finalized daily scores",
				"score_date", yesterday,
				"timezone", zone,
				"count", n)
		}
		totalFinalized += n
	}

	if totalFinalized > 0 {
		slog.Info("Cron: Finalization done", "count", totalFinalized)
	}
	j.recordRun(ctx, finalizeJobName, nil)
	return nil
}

func (j *ScoringJobs) recordRun(ctx context.Context, jobName string, runErr error) {
	if err := j.runRepo.RecordRun(ctx, jobName, j.now().UTC(), runErr); err != nil {
		slog.Error("Cron: Failed to record run status", "job", jobName, "error", err)
	}
}
