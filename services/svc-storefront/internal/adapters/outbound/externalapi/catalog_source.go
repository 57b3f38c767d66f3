package externalapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
)

const catalogPath = "/dispositivos"

// CatalogSource fetches the full external device catalog.
type CatalogSource struct {
	client  *Client
	timeout time.Duration
}

func NewCatalogSource(client *Client, timeout time.Duration) *CatalogSource {
	return &CatalogSource{
		client:  client,
		timeout: timeout,
	}
}

// BreakerState reports the state of the breaker guarding the catalog fetch.
func (s *CatalogSource) BreakerState() string {
	return s.client.BreakerState(catalogPath)
}

// FetchCatalog returns the catalog in payload order. A null or empty payload
// yields an empty slice.
func (s *CatalogSource) FetchCatalog(ctx context.Context) ([]model.ExternalDevice, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	body, err := s.client.get(ctx, catalogPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrCatalogUnavailable, err)
	}

	if len(body) == 0 {
		return []model.ExternalDevice{}, nil
	}

	var payload []deviceDTO
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decoding catalog: %w", model.ErrCatalogUnavailable, err)
	}

	devices := make([]model.ExternalDevice, 0, len(payload))
	for _, dto := range payload {
		devices = append(devices, dto.toModel())
	}

	return devices, nil
}
