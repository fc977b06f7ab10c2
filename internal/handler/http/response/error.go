package response

import (
	"errors"
	"net/http"

	"github.com/workpulse/prodscore-engine-go/internal/domain/employee"
	"github.com/workpulse/prodscore-engine-go/internal/domain/score"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, score.ErrScoreNotFound):
		NotFound(w, "Daily score not found")
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
