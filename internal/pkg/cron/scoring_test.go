package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workpulse/prodscore-engine-go/internal/domain/employee"
	"github.com/workpulse/prodscore-engine-go/internal/domain/event"
	"github.com/workpulse/prodscore-engine-go/internal/domain/role"
	"github.com/workpulse/prodscore-engine-go/internal/domain/score"
	"github.com/workpulse/prodscore-engine-go/internal/service/scoring"
)

// Minimal in-memory stand-ins for the job dependencies.

type stubTx struct{}

func (stubTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type stubScoreRepo struct {
	pending   []score.PendingPair
	scores    map[string]score.DailyScore
	finalized []string // "scoreDate|zoneEmployees" audit of FinalizeDate calls
	listErr   error
}

func newStubScoreRepo() *stubScoreRepo {
	return &stubScoreRepo{scores: make(map[string]score.DailyScore)}
}

func (s *stubScoreRepo) key(employeeID, scoreDate string) string {
	return employeeID + "|" + scoreDate
}

func (s *stubScoreRepo) GetByEmployeeAndDate(ctx context.Context, employeeID, scoreDate string) (score.DailyScore, error) {
	sc, ok := s.scores[s.key(employeeID, scoreDate)]
	if !ok {
		return score.DailyScore{}, score.ErrScoreNotFound
	}
	return sc, nil
}

func (s *stubScoreRepo) Upsert(ctx context.Context, sc score.DailyScore) (score.DailyScore, error) {
	if existing, ok := s.scores[s.key(sc.EmployeeID, sc.ScoreDate)]; ok && existing.IsFinalized {
		return score.DailyScore{}, score.ErrScoreFinalized
	}
	s.scores[s.key(sc.EmployeeID, sc.ScoreDate)] = sc
	return sc, nil
}

func (s *stubScoreRepo) ListByDateRange(ctx context.Context, employeeID string, startDate, endDate string) ([]score.DailyScore, error) {
	return nil, nil
}

func (s *stubScoreRepo) FinalizeDate(ctx context.Context, employeeIDs []string, scoreDate string, note string) (int64, error) {
	s.finalized = append(s.finalized, scoreDate)
	var n int64
	for _, id := range employeeIDs {
		if sc, ok := s.scores[s.key(id, scoreDate)]; ok && !sc.IsFinalized {
			sc.IsFinalized = true
			sc.Notes = note
			s.scores[s.key(id, scoreDate)] = sc
			n++
		}
	}
	return n, nil
}

func (s *stubScoreRepo) Reopen(ctx context.Context, employeeID, scoreDate string, note string) error {
	return nil
}

func (s *stubScoreRepo) ListPendingRecompute(ctx context.Context, limit int) ([]score.PendingPair, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	if len(s.pending) > limit {
		return s.pending[:limit], nil
	}
	return s.pending, nil
}

type stubIdleRepo struct{}

func (stubIdleRepo) ReplaceForDate(ctx context.Context, employeeID, scoreDate string, periods []score.IdlePeriod) error {
	return nil
}

func (stubIdleRepo) ListByEmployeeAndDate(ctx context.Context, employeeID, scoreDate string) ([]score.IdlePeriod, error) {
	return nil, nil
}

type stubEventRepo struct{ err error }

func (s stubEventRepo) ListByEmployeeAndRange(ctx context.Context, employeeID string, start, end time.Time) ([]event.ActivityEvent, error) {
	return nil, s.err
}

type stubClockRepo struct {
	errFor string // employee ID whose fetch fails
}

func (s stubClockRepo) ListOverlappingRange(ctx context.Context, employeeID string, start, end time.Time) ([]event.ClockInterval, error) {
	if s.errFor == employeeID {
		return nil, errors.New("connection reset")
	}
	return nil, nil
}

type stubEmployeeRepo struct {
	active []employee.Employee
	err    error
}

func (s stubEmployeeRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	for _, emp := range s.active {
		if emp.ID == id {
			return emp, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (s stubEmployeeRepo) ListActive(ctx context.Context) ([]employee.Employee, error) {
	return s.active, s.err
}

type stubRoleProvider struct{}

func (stubRoleProvider) Get(ctx context.Context, roleID string) (role.Config, bool, error) {
	return role.DefaultConfig(), roleID == role.DefaultRoleID, nil
}

// stubLockRepo simulates the lease table: busy makes every Acquire fail.
type stubLockRepo struct {
	busy     bool
	acquires int
	releases int
}

func (s *stubLockRepo) Acquire(ctx context.Context, name, holder string, ttl time.Duration) error {
	s.acquires++
	if s.busy {
		return score.ErrLockHeld
	}
	return nil
}

func (s *stubLockRepo) Release(ctx context.Context, name, holder string) error {
	s.releases++
	return nil
}

type stubRunRepo struct {
	runs []string
}

func (s *stubRunRepo) RecordRun(ctx context.Context, jobName string, ranAt time.Time, runErr error) error {
	s.runs = append(s.runs, jobName)
	return nil
}

func (s *stubRunRepo) ListRuns(ctx context.Context) ([]score.RunStatus, error) {
	return nil, nil
}

type jobsFixture struct {
	jobs      *ScoringJobs
	scoreRepo *stubScoreRepo
	clockRepo *stubClockRepo
	lockRepo  *stubLockRepo
	runRepo   *stubRunRepo
	employees *stubEmployeeRepo
}

func newJobsFixture(now time.Time) *jobsFixture {
	f := &jobsFixture{
		scoreRepo: newStubScoreRepo(),
		clockRepo: &stubClockRepo{},
		lockRepo:  &stubLockRepo{},
		runRepo:   &stubRunRepo{},
		employees: &stubEmployeeRepo{},
	}
	svc := scoring.NewService(
		stubTx{}, f.scoreRepo, stubIdleRepo{}, stubEventRepo{}, f.clockRepo,
		f.employees, stubRoleProvider{}, 15,
	).WithClock(func() time.Time { return now })

	f.jobs = NewScoringJobs(svc, f.scoreRepo, f.employees, f.lockRepo, f.runRepo, 100, 2*time.Minute)
	f.jobs.now = func() time.Time { return now }
	return f
}

func TestRecomputeChangedScores_ProcessesPendingPairs(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	f := newJobsFixture(now)
	f.scoreRepo.pending = []score.PendingPair{
		{EmployeeID: "emp-1", ScoreDate: "2024-06-14", TimeZone: "UTC"},
		{EmployeeID: "emp-2", ScoreDate: "2024-06-14", TimeZone: "Asia/Jakarta"},
	}

	err := f.jobs.RecomputeChangedScores(context.Background())
	require.NoError(t, err)

	assert.Contains(t, f.scoreRepo.scores, "emp-1|2024-06-14")
	assert.Contains(t, f.scoreRepo.scores, "emp-2|2024-06-14")
	assert.Equal(t, []string{recomputeJobName}, f.runRepo.runs)
	assert.Equal(t, 1, f.lockRepo.releases, "lease released after the batch")
}

func TestRecomputeChangedScores_BusyLeaseSkipsTick(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	f := newJobsFixture(now)
	f.lockRepo.busy = true
	f.scoreRepo.pending = []score.PendingPair{
		{EmployeeID: "emp-1", ScoreDate: "2024-06-14", TimeZone: "UTC"},
	}

	err := f.jobs.RecomputeChangedScores(context.Background())
	require.NoError(t, err, "a busy lease is not an error")

	assert.Empty(t, f.scoreRepo.scores, "nothing recomputed without the lease")
	assert.Zero(t, f.lockRepo.releases)
	assert.Empty(t, f.runRepo.runs)
}

func TestRecomputeChangedScores_PairFailureIsolated(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	f := newJobsFixture(now)
	f.clockRepo.errFor = "emp-1"
	f.scoreRepo.pending = []score.PendingPair{
		{EmployeeID: "emp-1", ScoreDate: "2024-06-14", TimeZone: "UTC"},
		{EmployeeID: "emp-2", ScoreDate: "2024-06-14", TimeZone: "UTC"},
	}

	err := f.jobs.RecomputeChangedScores(context.Background())
	require.NoError(t, err)

	assert.NotContains(t, f.scoreRepo.scores, "emp-1|2024-06-14")
	assert.Contains(t, f.scoreRepo.scores, "emp-2|2024-06-14", "later pairs still run")
}

func TestRecomputeChangedScores_FinalizedPairSkippedSilently(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	f := newJobsFixture(now)
	f.scoreRepo.scores["emp-1|2024-06-14"] = score.DailyScore{
		EmployeeID:  "emp-1",
		ScoreDate:   "2024-06-14",
		IsFinalized: true,
	}
	f.scoreRepo.pending = []score.PendingPair{
		{EmployeeID: "emp-1", ScoreDate: "2024-06-14", TimeZone: "UTC"},
	}

	err := f.jobs.RecomputeChangedScores(context.Background())
	require.NoError(t, err)
	assert.True(t, f.scoreRepo.scores["emp-1|2024-06-14"].IsFinalized, "finalized row untouched")
}

func TestRecomputeChangedScores_SelectionErrorRecorded(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	f := newJobsFixture(now)
	f.scoreRepo.listErr = errors.New("relation does not exist")

	err := f.jobs.RecomputeChangedScores(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{recomputeJobName}, f.runRepo.runs)
	assert.Equal(t, 1, f.lockRepo.releases)
}

func TestFinalizeCompletedDays_LocalMidnightOnly(t *testing.T) {
	// 00:05 in Jakarta (UTC+7) is 17:05 UTC: Jakarta finalizes, New York
	// (12:05 or 13:05 local) does not.
	now := time.Date(2024, 6, 14, 17, 5, 0, 0, time.UTC)
	f := newJobsFixture(now)
	f.employees.active = []employee.Employee{
		{ID: "emp-jkt", TimeZone: "Asia/Jakarta", IsActive: true},
		{ID: "emp-nyc", TimeZone: "America/New_York", IsActive: true},
	}
	f.scoreRepo.scores["emp-jkt|2024-06-14"] = score.DailyScore{EmployeeID: "emp-jkt", ScoreDate: "2024-06-14"}
	f.scoreRepo.scores["emp-nyc|2024-06-14"] = score.DailyScore{EmployeeID: "emp-nyc", ScoreDate: "2024-06-14"}

	err := f.jobs.FinalizeCompletedDays(context.Background())
	require.NoError(t, err)

	assert.True(t, f.scoreRepo.scores["emp-jkt|2024-06-14"].IsFinalized)
	assert.Contains(t, f.scoreRepo.scores["emp-jkt|2024-06-14"].Notes, "finalized by scheduler at")
	assert.False(t, f.scoreRepo.scores["emp-nyc|2024-06-14"].IsFinalized,
		"not yet midnight in New York")
}

func TestFinalizeCompletedDays_NoZoneAtMidnight(t *testing.T) {
	now := time.Date(2024, 6, 14, 12, 30, 0, 0, time.UTC)
	f := newJobsFixture(now)
	f.employees.active = []employee.Employee{
		{ID: "emp-1", TimeZone: "UTC", IsActive: true},
	}

	err := f.jobs.FinalizeCompletedDays(context.Background())
	require.NoError(t, err)
	assert.Empty(t, f.scoreRepo.finalized)
	assert.Equal(t, []string{finalizeJobName}, f.runRepo.runs)
}

func TestFinalizeCompletedDays_UnknownZoneSkipped(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 10, 0, 0, time.UTC)
	f := newJobsFixture(now)
	f.employees.active = []employee.Employee{
		{ID: "emp-bad", TimeZone: "Mars/Olympus", IsActive: true},
		{ID: "emp-utc", TimeZone: "UTC", IsActive: true},
	}
	f.scoreRepo.scores["emp-utc|2024-06-14"] = score.DailyScore{EmployeeID: "emp-utc", ScoreDate: "2024-06-14"}

	err := f.jobs.FinalizeCompletedDays(context.Background())
	require.NoError(t, err)
	assert.True(t, f.scoreRepo.scores["emp-utc|2024-06-14"].IsFinalized,
		"a broken zone must not block other zones")
}

func TestFinalizeCompletedDays_BusyLeaseSkipsTick(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 10, 0, 0, time.UTC)
	f := newJobsFixture(now)
	f.lockRepo.busy = true
	f.employees.active = []employee.Employee{
		{ID: "emp-1", TimeZone: "UTC", IsActive: true},
	}

	err := f.jobs.FinalizeCompletedDays(context.Background())
	require.NoError(t, err)
	assert.Empty(t, f.scoreRepo.finalized)
}
