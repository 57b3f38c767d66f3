package runtime

import (
	"context"
	"fmt"
	"net/http"

	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/pkg/metrics"
	"github.com/architeacher/storefront/services/svc-storefront/internal/adapters/outbound/externalapi"
	"github.com/architeacher/storefront/services/svc-storefront/internal/adapters/repos"
	"github.com/architeacher/storefront/services/svc-storefront/internal/config"
	"github.com/architeacher/storefront/services/svc-storefront/internal/infrastructure"
	"github.com/architeacher/storefront/services/svc-storefront/internal/ports"
	"github.com/architeacher/storefront/services/svc-storefront/internal/services"
	"github.com/architeacher/storefront/services/svc-storefront/internal/usecases"
	"github.com/architeacher/storefront/services/svc-storefront/internal/usecases/queries"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/throttled/throttled/v2"
)

type (
	infrastructureDep struct {
		publicHttpServer *http.Server
		adminHttpServer  *http.Server
		telemetry        *infrastructure.Telemetry
		cacheClient      *infrastructure.KeydbClient
		dbPool           *pgxpool.Pool
		catalogAPI       *externalapi.Client
		logger           logger.Logger
		metricsClient    metrics.Client
	}

	repositories struct {
		secretsRepo     ports.SecretsRepository
		catalogRepo     *repos.CatalogRepository
		salesRepo       *repos.SalesRepository
		idempotencyRepo ports.IdempotencyCache
		syncLock        ports.DistributedLock
		saleCache       queries.SaleCache
		rateLimitStore  throttled.GCRAStoreCtx
	}

	servicesDep struct {
		publisher      ports.EventPublisher
		synchronizer   *services.CatalogSynchronizer
		scheduler      *services.SyncScheduler
		notifier       *services.SaleNotifier
		registrar      *services.SaleRegistrar
		healthCheckers []ports.HealthChecker
	}

	dependencies struct {
		config       *config.ServiceConfig
		configLoader *config.Loader

		infra infrastructureDep

		repos repositories

		services servicesDep

		app *usecases.Application

		cleanupFuncs []cleanupFunc
	}

	cleanupFunc struct {
		resource string
		fn       func(ctx context.Context) error
	}

	DependencyOption func(*dependencies) error
)

func initializeDependencies(ctx context.Context, opts ...DependencyOption) (*dependencies, error) {
	deps := &dependencies{}

	allOpts := append(defaultOptions(ctx), opts...)

	for _, opt := range allOpts {
		if err := opt(deps); err != nil {
			return nil, fmt.Errorf("failed to apply dependency option: %w", err)
		}
	}

	return deps, nil
}

// onShutdown registers fn to run during cleanup. Resources are released in
// reverse registration order.
func (d *dependencies) onShutdown(resource string, fn func(ctx context.Context) error) {
	d.cleanupFuncs = append(d.cleanupFuncs, cleanupFunc{resource: resource, fn: fn})
}
