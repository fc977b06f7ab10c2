package role

import "time"

// DefaultRoleID is used when an event carries no role or an unknown one.
const DefaultRoleID = "default"

// Config is external reference data: how a role's processed items convert
// to points, plus an optional per-role idle threshold override.
type Config struct {
	RoleID               string
	PointsPerItem        float64
	MonthlyTarget        int
	IdleThresholdMinutes *int
	UpdatedAt            time.Time
}

// DefaultConfig returns the fallback role applied when no config matches.
func DefaultConfig() Config {
	return Config{
		RoleID:        DefaultRoleID,
		PointsPerItem: 1,
	}
}
