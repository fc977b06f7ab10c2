package role

import "context"

// ConfigRepository reads role reference data. Read-only to the engine.
type ConfigRepository interface {
	// ListAll returns every role config in one round trip so batch runs
	// never look roles up per employee.
	ListAll(ctx context.Context) ([]Config, error)
}
