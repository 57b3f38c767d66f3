package queries

import (
	"context"
	"sync"
	"time"

	"github.com/architeacher/storefront/pkg/decorator"
	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/pkg/metrics"
	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
	"github.com/architeacher/storefront/services/svc-storefront/internal/ports"
	otelTrace "go.opentelemetry.io/otel/trace"
)

const readinessCheckTimeout = 3 * time.Second

type (
	FetchReadinessQuery struct{}

	FetchReadinessQueryHandler = decorator.QueryHandler[FetchReadinessQuery, *model.ReadinessReport]

	fetchReadinessQueryHandler struct {
		version  string
		checkers []ports.HealthChecker
	}
)

func NewFetchReadinessQueryHandler(
	version string,
	checkers []ports.HealthChecker,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) FetchReadinessQueryHandler {
	return decorator.ApplyQueryDecorators[FetchReadinessQuery, *model.ReadinessReport](
		fetchReadinessQueryHandler{version: version, checkers: checkers},
		log,
		metricsClient,
		tracerProvider,
	)
}

// Execute pings every dependency concurrently. A failing dependency makes the
// report down; it is never returned as an error.
func (h fetchReadinessQueryHandler) Execute(ctx context.Context, _ FetchReadinessQuery) (*model.ReadinessReport, error) {
	ctx, cancel := context.WithTimeout(ctx, readinessCheckTimeout)
	defer cancel()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]model.DependencyCheck, len(h.checkers))
	)

	for _, checker := range h.checkers {
		wg.Add(1)

		go func(checker ports.HealthChecker) {
			defer wg.Done()

			check := ping(ctx, checker)

			mu.Lock()
			checks[checker.Name()] = check
			mu.Unlock()
		}(checker)
	}

	wg.Wait()

	status := model.HealthStatusOK
	for _, check := range checks {
		if check.Status != model.DependencyStatusUp {
			status = model.HealthStatusDown

			break
		}
	}

	return &model.ReadinessReport{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Version:   h.version,
		Checks:    checks,
	}, nil
}

func ping(ctx context.Context, checker ports.HealthChecker) model.DependencyCheck {
	start := time.Now()
	err := checker.Ping(ctx)

	check := model.DependencyCheck{
		Status:      model.DependencyStatusUp,
		LatencyMs:   uint64(time.Since(start).Milliseconds()),
		LastChecked: start.UTC(),
	}

	if err != nil {
		check.Status = model.DependencyStatusDown
		check.Message = err.Error()
	}

	return check
}
