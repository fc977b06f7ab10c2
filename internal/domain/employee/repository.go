package employee

import "context"

// EmployeeRepository reads employee reference data. Read-only to the engine.
type EmployeeRepository interface {
	// GetByID retrieves a single employee
	GetByID(ctx context.Context, id string) (Employee, error)

	// ListActive returns all active employees in one round trip; batch
	// runs prefetch this instead of querying per employee.
	ListActive(ctx context.Context) ([]Employee, error)
}
