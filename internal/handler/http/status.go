package http

import (
	"net/http"
	"time"

	"github.com/workpulse/prodscore-engine-go/internal/domain/score"
	"github.com/workpulse/prodscore-engine-go/internal/handler/http/response"
	"github.com/workpulse/prodscore-engine-go/internal/pkg/timeutil"
)

// StatusHandler exposes engine telemetry: per-job last-run timestamps (the
// downstream stale-data indicator) and a read-only score listing. This is
// not the dashboard API; it carries no auth and mutates nothing.
type StatusHandler struct {
	runRepo   score.RunStatusRepository
	scoreRepo score.DailyScoreRepository
	idleRepo  score.IdlePeriodRepository
}

func NewStatusHandler(
	runRepo score.RunStatusRepository,
	scoreRepo score.DailyScoreRepository,
	idleRepo score.IdlePeriodRepository,
) StatusHandler {
	return StatusHandler{
		runRepo:   runRepo,
		scoreRepo: scoreRepo,
		idleRepo:  idleRepo,
	}
}

type jobStatusDTO struct {
	JobName   string    `json:"job_name"`
	LastRunAt time.Time `json:"last_run_at"`
	LastError string    `json:"last_error,omitempty"`
}

type dailyScoreDTO struct {
	ID             string  `json:"id"`
	EmployeeID     string  `json:"employee_id"`
	ScoreDate      string  `json:"score_date"`
	ClockedMinutes int     `json:"clocked_minutes"`
	ActiveMinutes  int     `json:"active_minutes"`
	IdleMinutes    int     `json:"idle_minutes"`
	ItemsProcessed int     `json:"items_processed"`
	EfficiencyRate float64 `json:"efficiency_rate"`
	PointsEarned   float64 `json:"points_earned"`
	RoleUnmatched  bool    `json:"role_unmatched"`
	HasAnomaly     bool    `json:"has_anomaly"`
	IsFinalized    bool    `json:"is_finalized"`
	Notes          string  `json:"notes,omitempty"`
}

func toDailyScoreDTO(s score.DailyScore) dailyScoreDTO {
	return dailyScoreDTO{
		ID:             s.ID,
		EmployeeID:     s.EmployeeID,
		ScoreDate:      s.ScoreDate,
		ClockedMinutes: s.ClockedMinutes,
		ActiveMinutes:  s.ActiveMinutes,
		IdleMinutes:    s.IdleMinutes,
		ItemsProcessed: s.ItemsProcessed,
		EfficiencyRate: s.EfficiencyRate,
		PointsEarned:   s.PointsEarned,
		RoleUnmatched:  s.RoleUnmatched,
		HasAnomaly:     s.HasAnomaly,
		IsFinalized:    s.IsFinalized,
		Notes:          s.Notes,
	}
}

type idlePeriodDTO struct {
	ID              string    `json:"id"`
	EmployeeID      string    `json:"employee_id"`
	ScoreDate       string    `json:"score_date"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
}

// GetStatus reports the last outcome of every scheduler job.
func (h StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	runs, err := h.runRepo.ListRuns(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	dtos := make([]jobStatusDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, jobStatusDTO{
			JobName:   run.JobName,
			LastRunAt: run.LastRunAt,
			LastError: run.LastError,
		})
	}
	response.Success(w, dtos)
}

// ListScores returns daily scores for a local-date range, optionally for
// one employee. Read-only; finalized and open rows alike.
func (h StatusHandler) ListScores(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	startDate := q.Get("start_date")
	endDate := q.Get("end_date")
	employeeID := q.Get("employee_id")

	if startDate == "" || endDate == "" {
		response.BadRequest(w, "start_date and end_date are required (YYYY-MM-DD)")
		return
	}
	for _, d := range []string{startDate, endDate} {
		if _, err := time.Parse(timeutil.DateLayout, d); err != nil {
			response.BadRequest(w, "dates must be formatted YYYY-MM-DD")
			return
		}
	}

	scores, err := h.scoreRepo.ListByDateRange(r.Context(), employeeID, startDate, endDate)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	dtos := make([]dailyScoreDTO, 0, len(scores))
	for _, s := range scores {
		dtos = append(dtos, toDailyScoreDTO(s))
	}
	response.Success(w, dtos)
}

// ListIdlePeriods returns the stored idle period set for one employee/date.
func (h StatusHandler) ListIdlePeriods(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	employeeID := q.Get("employee_id")
	scoreDate := q.Get("date")

	if employeeID == "" || scoreDate == "" {
		response.BadRequest(w, "employee_id and date are required")
		return
	}
	if _, err := time.Parse(timeutil.DateLayout, scoreDate); err != nil {
		response.BadRequest(w, "date must be formatted YYYY-MM-DD")
		return
	}

	periods, err := h.idleRepo.ListByEmployeeAndDate(r.Context(), employeeID, scoreDate)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	dtos := make([]idlePeriodDTO, 0, len(periods))
	for _, p := range periods {
		dtos = append(dtos, idlePeriodDTO{
			ID:              p.ID,
			EmployeeID:      p.EmployeeID,
			ScoreDate:       p.ScoreDate,
			StartTime:       p.StartTime,
			EndTime:         p.EndTime,
			DurationMinutes: p.DurationMinutes,
		})
	}
	response.Success(w, dtos)
}
