package usecases

import (
	"github.com/architeacher/storefront/pkg/decorator"
	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/pkg/metrics"
	"github.com/architeacher/storefront/services/svc-storefront/internal/ports"
	"github.com/architeacher/storefront/services/svc-storefront/internal/usecases/commands"
	"github.com/architeacher/storefront/services/svc-storefront/internal/usecases/queries"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	Commands struct {
		RegisterSale commands.RegisterSaleCommandHandler
		SyncCatalog  commands.SyncCatalogCommandHandler
	}

	Queries struct {
		GetSale        queries.GetSaleQueryHandler
		FetchLiveness  queries.FetchLivenessQueryHandler
		FetchReadiness queries.FetchReadinessQueryHandler
	}

	Application struct {
		Commands Commands
		Queries  Queries
	}

	// Dependencies groups what the application layer is built from.
	Dependencies struct {
		Version         string
		Registrar       ports.SaleRegistrar
		Synchronizer    ports.CatalogSynchronizer
		Sales           ports.SaleStore
		SaleCache       queries.SaleCache
		SaleCacheConfig decorator.CacheConfig
		HealthCheckers  []ports.HealthChecker
	}
)

func NewApplication(
	deps Dependencies,
	log logger.Logger,
	tracerProvider otelTrace.TracerProvider,
	metricsClient metrics.Client,
) *Application {
	return &Application{
		Commands: Commands{
			RegisterSale: commands.NewRegisterSaleCommandHandler(deps.Registrar, log, metricsClient, tracerProvider),
			SyncCatalog:  commands.NewSyncCatalogCommandHandler(deps.Synchronizer, log, metricsClient, tracerProvider),
		},
		Queries: Queries{
			GetSale: queries.NewGetSaleQueryHandler(
				deps.Sales, deps.SaleCache, deps.SaleCacheConfig, log, metricsClient, tracerProvider,
			),
			FetchLiveness:  queries.NewFetchLivenessQueryHandler(deps.Version, log, metricsClient, tracerProvider),
			FetchReadiness: queries.NewFetchReadinessQueryHandler(deps.Version, deps.HealthCheckers, log, metricsClient, tracerProvider),
		},
	}
}
