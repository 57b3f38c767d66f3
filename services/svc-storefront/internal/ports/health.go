package ports

import "context"

// HealthChecker checks one dependency for readiness.
type HealthChecker interface {
	Name() string
	Ping(ctx context.Context) error
}
