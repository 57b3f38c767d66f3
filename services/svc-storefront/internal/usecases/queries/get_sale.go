package queries

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
	GetSaleQuery struct {
		ID model.ID
	}

	GetSaleQueryHandler = decorator.QueryHandler[GetSaleQuery, *model.Sale]

	SaleCache = decorator.Cache[GetSaleQuery, *model.Sale]

	getSaleQueryHandler struct {
		sales ports.SaleStore
	}
)

// NewGetSaleQueryHandler reads sales through cache when one is given.
func NewGetSaleQueryHandler(
	sales ports.SaleStore,
	cache SaleCache,
	cacheConfig decorator.CacheConfig,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) GetSaleQueryHandler {
	var handler GetSaleQueryHandler = getSaleQueryHandler{sales: sales}

	if cache != nil {
		handler = decorator.NewQueryCachingDecorator[GetSaleQuery, *model.Sale](handler, cache, cacheConfig)
	}

	return decorator.ApplyQueryDecorators[GetSaleQuery, *model.Sale](
		handler,
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h getSaleQueryHandler) Execute(ctx context.Context, query GetSaleQuery) (*model.Sale, error) {
	return h.sales.FetchByID(ctx, query.ID)
}
