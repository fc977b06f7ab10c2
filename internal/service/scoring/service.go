package scoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/workpulse/prodscore-engine-go/internal/domain/employee"
	"github.com/workpulse/prodscore-engine-go/internal/domain/event"
	"github.com/workpulse/prodscore-engine-go/internal/domain/role"
	"github.com/workpulse/prodscore-engine-go/internal/domain/score"
	"github.com/workpulse/prodscore-engine-go/internal/pkg/timeutil"
)

// TxRunner runs fn atomically. The postgresql package provides the real
// implementation; tests substitute a pass-through.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service recomputes and persists daily productivity scores. Recomputation
// is idempotent: rerunning with unchanged inputs yields identical score
// fields (except updated_at) and an identical idle period set.
type Service struct {
	tx        TxRunner
	scores    score.DailyScoreRepository
	idles     score.IdlePeriodRepository
	events    event.ActivityEventRepository
	clocks    event.ClockIntervalRepository
	employees employee.EmployeeRepository
	roles     role.ConfigProvider

	defaultIdleThreshold int
	now                  func() time.Time
}

func NewService(
	tx TxRunner,
	scores score.DailyScoreRepository,
	idles score.IdlePeriodRepository,
	events event.ActivityEventRepository,
	clocks event.ClockIntervalRepository,
	employees employee.EmployeeRepository,
	roles role.ConfigProvider,
	defaultIdleThreshold int,
) *Service {
	return &Service{
		tx:                   tx,
		scores:               scores,
		idles:                idles,
		events:               events,
		clocks:               clocks,
		employees:            employees,
		roles:                roles,
		defaultIdleThreshold: defaultIdleThreshold,
		now:                  time.Now,
	}
}

// WithClock overrides the time source; used by tests and the scheduler.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RecomputeAndPersist recomputes the score for one employee and local date,
// resolving the employee's timezone first.
func (s *Service) RecomputeAndPersist(ctx context.Context, employeeID, localDate string) (score.DailyScore, error) {
	emp, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return score.DailyScore{}, fmt.Errorf("failed to resolve employee %s: %w", employeeID, err)
	}
	return s.RecomputePair(ctx, score.PendingPair{
		EmployeeID: employeeID,
		ScoreDate:  localDate,
		TimeZone:   emp.TimeZone,
	})
}

// RecomputePair recomputes one (employee, local date) pair with a known
// timezone; the batch scheduler calls this with prefetched pairs.
func (s *Service) RecomputePair(ctx context.Context, pair score.PendingPair) (score.DailyScore, error) {
	// Finalized days are immutable to recomputation; the check runs again
	// inside the upsert so a finalization racing this call still wins.
	existing, err := s.scores.GetByEmployeeAndDate(ctx, pair.EmployeeID, pair.ScoreDate)
	if err != nil && !errors.Is(err, score.ErrScoreNotFound) {
		return score.DailyScore{}, fmt.Errorf("failed to load existing score: %w", err)
	}
	if err == nil && existing.IsFinalized {
		return score.DailyScore{}, score.ErrScoreFinalized
	}

	bounds, err := timeutil.ResolveDayBoundsUTC(pair.ScoreDate, pair.TimeZone)
	if err != nil {
		return score.DailyScore{}, err
	}

	intervals, err := s.clocks.ListOverlappingRange(ctx, pair.EmployeeID, bounds.Start, bounds.End)
	if err != nil {
		return score.DailyScore{}, fmt.Errorf("failed to fetch clock intervals: %w", err)
	}

	activity, err := s.events.ListByEmployeeAndRange(ctx, pair.EmployeeID, bounds.Start, bounds.End)
	if err != nil {
		return score.DailyScore{}, fmt.Errorf("failed to fetch activity events: %w", err)
	}

	threshold, err := s.idleThreshold(ctx, activity)
	if err != nil {
		return score.DailyScore{}, err
	}

	now := s.now().UTC()
	result := ComputeActiveTime(pair.EmployeeID, pair.ScoreDate, intervals, activity, bounds, threshold, now)

	items, points, roleUnmatched, err := s.tallyItems(ctx, activity)
	if err != nil {
		return score.DailyScore{}, err
	}

	if result.HasAnomaly {
		slog.Warn("Activity recorded outside any clock interval",
			"employee_id", pair.EmployeeID,
			"score_date", pair.ScoreDate)
	}

	next := score.DailyScore{
		EmployeeID:     pair.EmployeeID,
		ScoreDate:      pair.ScoreDate,
		ClockedMinutes: result.ClockedMinutes,
		ActiveMinutes:  result.ActiveMinutes,
		IdleMinutes:    result.IdleMinutes,
		ItemsProcessed: items,
		EfficiencyRate: result.EfficiencyRate,
		PointsEarned:   points,
		RoleUnmatched:  roleUnmatched,
		HasAnomaly:     result.HasAnomaly,
	}

	var persisted score.DailyScore
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.idles.ReplaceForDate(txCtx, pair.EmployeeID, pair.ScoreDate, result.IdlePeriods); err != nil {
			return fmt.Errorf("failed to replace idle periods: %w", err)
		}
		persisted, err = s.scores.Upsert(txCtx, next)
		if err != nil {
			return fmt.Errorf("failed to upsert daily score: %w", err)
		}
		return nil
	})
	if err != nil {
		return score.DailyScore{}, err
	}

	return persisted, nil
}

// Reopen clears finalization on one day so backfill corrections can be
// recomputed. Every reopen is recorded in the score's notes.
func (s *Service) Reopen(ctx context.Context, employeeID, localDate, actor string) error {
	existing, err := s.scores.GetByEmployeeAndDate(ctx, employeeID, localDate)
	if err != nil {
		return err
	}
	if !existing.IsFinalized {
		return score.ErrNotFinalized
	}

	note := fmt.Sprintf("reopened by %s at %s", actor, s.now().UTC().Format(time.RFC3339))
	if err := s.scores.Reopen(ctx, employeeID, localDate, note); err != nil {
		return fmt.Errorf("failed to reopen score: %w", err)
	}

	slog.Info("Daily score reopened",
		"employee_id", employeeID,
		"score_date", localDate,
		"actor", actor)
	return nil
}

// idleThreshold picks the effective idle threshold for a day: the dominant
// role's override when it has one, the engine default otherwise. The
// dominant role is the one that produced the most items that day.
func (s *Service) idleThreshold(ctx context.Context, events []event.ActivityEvent) (int, error) {
	itemsByRole := make(map[string]int)
	for _, ev := range events {
		if ev.RoleID == nil {
			continue
		}
		itemsByRole[*ev.RoleID] += ev.ItemsCount
	}

	dominant := ""
	best := -1
	for roleID, items := range itemsByRole {
		if items > best || (items == best && roleID < dominant) {
			dominant = roleID
			best = items
		}
	}
	if dominant == "" {
		return s.defaultIdleThreshold, nil
	}

	cfg, ok, err := s.roles.Get(ctx, dominant)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve role config: %w", err)
	}
	if ok && cfg.IdleThresholdMinutes != nil {
		return *cfg.IdleThresholdMinutes, nil
	}
	return s.defaultIdleThreshold, nil
}

// tallyItems sums processed items and points across events, applying each
// event's role multiplier. A missing role config falls back to the default
// role and flags the result instead of failing the computation.
func (s *Service) tallyItems(ctx context.Context, events []event.ActivityEvent) (int, float64, bool, error) {
	items := 0
	points := 0.0
	roleUnmatched := false

	for _, ev := range events {
		items += ev.ItemsCount

		roleID := role.DefaultRoleID
		if ev.RoleID != nil && *ev.RoleID != "" {
			roleID = *ev.RoleID
		} else {
			roleUnmatched = true
		}

		cfg, ok, err := s.roles.Get(ctx, roleID)
		if err != nil {
			return 0, 0, false, fmt.Errorf("failed to resolve role config: %w", err)
		}
		if !ok && roleID != role.DefaultRoleID {
			roleUnmatched = true
		}
		points += float64(ev.ItemsCount) * cfg.PointsPerItem
	}

	return items, points, roleUnmatched, nil
}
