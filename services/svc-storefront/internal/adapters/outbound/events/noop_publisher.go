package events

import (
	"context"

	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
)

// NoopPublisher is used when no Kafka brokers are configured.
type NoopPublisher struct{}

func NewNoopPublisher() NoopPublisher {
	return NoopPublisher{}
}

func (NoopPublisher) PublishSaleRegistered(context.Context, *model.Sale) error {
	return nil
}

func (NoopPublisher) PublishCatalogSynchronized(context.Context, model.SyncReport) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}
