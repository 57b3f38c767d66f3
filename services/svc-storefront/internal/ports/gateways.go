package ports

import (
	"context"

	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
)

type (
	// CatalogSource fetches the full external catalog in one call.
	CatalogSource interface {
		FetchCatalog(ctx context.Context) ([]model.ExternalDevice, error)
	}

	// SalesReporter delivers a sale report to the external system.
	SalesReporter interface {
		Report(ctx context.Context, report model.SaleReport) error
	}

	// SaleNotifier reports persisted sales without blocking the caller.
	SaleNotifier interface {
		Notify(ctx context.Context, sale *model.Sale) error
	}

	CatalogSynchronizer interface {
		Sync(ctx context.Context) (*model.SyncResult, error)
	}

	SaleRegistrar interface {
		RegisterSale(ctx context.Context, req model.SaleRequest) (*model.Sale, error)
	}
)
