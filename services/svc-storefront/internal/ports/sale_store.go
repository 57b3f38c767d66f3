package ports

import (
	"context"

	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
)

type SaleStore interface {
	// Save persists the sale together with its lines and add-ons.
	Save(ctx context.Context, sale *model.Sale) error

	// FetchByID returns model.ErrSaleNotFound when the sale does not exist.
	FetchByID(ctx context.Context, id model.ID) (*model.Sale, error)
}
