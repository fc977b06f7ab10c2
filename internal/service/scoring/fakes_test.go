package scoring

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/workpulse/prodscore-engine-go/internal/domain/employee"
	"github.com/workpulse/prodscore-engine-go/internal/domain/event"
	"github.com/workpulse/prodscore-engine-go/internal/domain/role"
	"github.com/workpulse/prodscore-engine-go/internal/domain/score"
)

// In-memory fakes backing the service tests. They mirror the repository
// contracts closely enough to exercise the idempotence and finalization
// guarantees without a database.

type passTx struct{}

func (passTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeScoreRepo struct {
	mu     sync.Mutex
	scores map[string]score.DailyScore
}

func newFakeScoreRepo() *fakeScoreRepo {
	return &fakeScoreRepo{scores: make(map[string]score.DailyScore)}
}

func scoreKey(employeeID, scoreDate string) string {
	return employeeID + "|" + scoreDate
}

func (f *fakeScoreRepo) GetByEmployeeAndDate(ctx context.Context, employeeID, scoreDate string) (score.DailyScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.scores[scoreKey(employeeID, scoreDate)]
	if !ok {
		return score.DailyScore{}, score.ErrScoreNotFound
	}
	return s, nil
}

func (f *fakeScoreRepo) Upsert(ctx context.Context, s score.DailyScore) (score.DailyScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := scoreKey(s.EmployeeID, s.ScoreDate)
	if existing, ok := f.scores[key]; ok {
		if existing.IsFinalized {
			return score.DailyScore{}, score.ErrScoreFinalized
		}
		s.ID = existing.ID
		s.IsFinalized = existing.IsFinalized
		s.Notes = existing.Notes
	} else {
		s.ID = uuid.NewString()
	}
	s.UpdatedAt = time.Now()
	f.scores[key] = s
	return s, nil
}

func (f *fakeScoreRepo) ListByDateRange(ctx context.Context, employeeID string, startDate, endDate string) ([]score.DailyScore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []score.DailyScore
	for _, s := range f.scores {
		if employeeID != "" && s.EmployeeID != employeeID {
			continue
		}
		if s.ScoreDate < startDate || s.ScoreDate > endDate {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScoreDate < out[j].ScoreDate })
	return out, nil
}

func (f *fakeScoreRepo) FinalizeDate(ctx context.Context, employeeIDs []string, scoreDate string, note string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	allowed := map[string]bool{}
	for _, id := range employeeIDs {
		allowed[id] = true
	}
	var n int64
	for key, s := range f.scores {
		if s.ScoreDate != scoreDate || s.IsFinalized {
			continue
		}
		if len(employeeIDs) > 0 && !allowed[s.EmployeeID] {
			continue
		}
		s.IsFinalized = true
		if s.Notes == "" {
			s.Notes = note
		} else {
			s.Notes += "\n" + note
		}
		s.UpdatedAt = time.Now()
		f.scores[key] = s
		n++
	}
	return n, nil
}

func (f *fakeScoreRepo) Reopen(ctx context.Context, employeeID, scoreDate string, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := scoreKey(employeeID, scoreDate)
	s, ok := f.scores[key]
	if !ok || !s.IsFinalized {
		return score.ErrScoreNotFound
	}
	s.IsFinalized = false
	if s.Notes == "" {
		s.Notes = note
	} else {
		s.Notes += "\n" + note
	}
	s.UpdatedAt = time.Now()
	f.scores[key] = s
	return nil
}

func (f *fakeScoreRepo) ListPendingRecompute(ctx context.Context, limit int) ([]score.PendingPair, error) {
	return nil, nil
}

type fakeIdleRepo struct {
	mu      sync.Mutex
	periods map[string][]score.IdlePeriod
	// replaceCalls counts delete-then-insert cycles for idempotence checks.
	replaceCalls int
}

func newFakeIdleRepo() *fakeIdleRepo {
	return &fakeIdleRepo{periods: make(map[string][]score.IdlePeriod)}
}

func (f *fakeIdleRepo) ReplaceForDate(ctx context.Context, employeeID, scoreDate string, periods []score.IdlePeriod) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.replaceCalls++
	f.periods[scoreKey(employeeID, scoreDate)] = periods
	return nil
}

func (f *fakeIdleRepo) ListByEmployeeAndDate(ctx context.Context, employeeID, scoreDate string) ([]score.IdlePeriod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.periods[scoreKey(employeeID, scoreDate)], nil
}

type fakeEventRepo struct {
	events []event.ActivityEvent
}

func (f *fakeEventRepo) ListByEmployeeAndRange(ctx context.Context, employeeID string, start, end time.Time) ([]event.ActivityEvent, error) {
	var out []event.ActivityEvent
	for _, ev := range f.events {
		if ev.EmployeeID != employeeID {
			continue
		}
		if ev.WindowStart.Before(end) && !ev.WindowEnd.Before(start) {
			out = append(out, ev)
		}
	}
	return out, nil
}

type fakeClockRepo struct {
	intervals []event.ClockInterval
}

func (f *fakeClockRepo) ListOverlappingRange(ctx context.Context, employeeID string, start, end time.Time) ([]event.ClockInterval, error) {
	var out []event.ClockInterval
	for _, iv := range f.intervals {
		if iv.EmployeeID != employeeID {
			continue
		}
		if iv.ClockIn.Before(end) && (iv.ClockOut == nil || !iv.ClockOut.Before(start)) {
			out = append(out, iv)
		}
	}
	return out, nil
}

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
}

func (f *fakeEmployeeRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	emp, ok := f.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func (f *fakeEmployeeRepo) ListActive(ctx context.Context) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, emp := range f.employees {
		if emp.IsActive {
			out = append(out, emp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeRoleProvider struct {
	configs map[string]role.Config
}

func (f *fakeRoleProvider) Get(ctx context.Context, roleID string) (role.Config, bool, error) {
	if cfg, ok := f.configs[roleID]; ok {
		return cfg, true, nil
	}
	return role.DefaultConfig(), false, nil
}

// idleSetFingerprint normalizes generated IDs away so two recomputes can
// be compared as sets of (start, end, duration).
func idleSetFingerprint(periods []score.IdlePeriod) []string {
	out := make([]string, 0, len(periods))
	for _, p := range periods {
		out = append(out, fmt.Sprintf("%s|%s|%d",
			p.StartTime.Format(time.RFC3339), p.EndTime.Format(time.RFC3339), p.DurationMinutes))
	}
	sort.Strings(out)
	return out
}
