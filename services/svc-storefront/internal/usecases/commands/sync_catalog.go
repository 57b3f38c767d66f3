package commands

import (
	"context"

	"github.com/architeacher/storefront/pkg/decorator"
	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/pkg/metrics"
	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
	"github.com/architeacher/storefront/services/svc-storefront/internal/ports"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	// SyncCatalogCommand triggers an on-demand catalog synchronization.
	SyncCatalogCommand struct{}

	SyncCatalogCommandHandler = decorator.CommandHandler[SyncCatalogCommand, *model.SyncResult]

	syncCatalogCommandHandler struct {
		synchronizer ports.CatalogSynchronizer
	}
)

func NewSyncCatalogCommandHandler(
	synchronizer ports.CatalogSynchronizer,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) SyncCatalogCommandHandler {
	return decorator.ApplyCommandDecorators[SyncCatalogCommand, *model.SyncResult](
		syncCatalogCommandHandler{synchronizer: synchronizer},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h syncCatalogCommandHandler) Handle(ctx context.Context, _ SyncCatalogCommand) (*model.SyncResult, error) {
	return h.synchronizer.Sync(ctx)
}
