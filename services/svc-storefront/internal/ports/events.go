package ports

import (
	"context"

	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
)

// EventPublisher emits domain events. Callers log failures and carry on.
type EventPublisher interface {
	PublishSaleRegistered(ctx context.Context, sale *model.Sale) error
	PublishCatalogSynchronized(ctx context.Context, report model.SyncReport) error
	Close() error
}
