package repos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
	"github.com/architeacher/storefront/services/svc-storefront/internal/infrastructure"
	"github.com/architeacher/storefront/services/svc-storefront/internal/usecases/queries"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const saleKeyPrefix = "sale:v1:"

type (
	// SaleCacheRepository caches persisted sales for GetSaleQuery. Sales are
	// immutable once written, so entries only expire.
	SaleCacheRepository struct {
		client *infrastructure.KeydbClient
	}

	cachedSale struct {
		ID         string            `json:"id"`
		DeviceID   string            `json:"device_id"`
		SoldAt     time.Time         `json:"sold_at"`
		FinalPrice decimal.Decimal   `json:"final_price"`
		Lines      []cachedSaleLine  `json:"lines"`
		Addons     []cachedSaleAddon `json:"addons"`
		CreatedAt  time.Time         `json:"created_at"`
	}

	cachedSaleLine struct {
		CustomizationID string `json:"customization_id"`
		OptionID        string `json:"option_id,omitempty"`
	}

	cachedSaleAddon struct {
		AddonID      string          `json:"addon_id"`
		ChargedPrice decimal.Decimal `json:"charged_price"`
		Free         bool            `json:"free"`
	}
)

func NewSaleCacheRepository(client *infrastructure.KeydbClient) *SaleCacheRepository {
	return &SaleCacheRepository{client: client}
}

func (r *SaleCacheRepository) Get(ctx context.Context, query queries.GetSaleQuery) (*model.Sale, bool, error) {
	data, err := r.client.Get(ctx, saleKeyPrefix+query.ID.String())
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("getting cached sale: %w", err)
	}

	var cached cachedSale
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false, fmt.Errorf("unmarshalling cached sale: %w", err)
	}

	sale, err := cached.toModel()
	if err != nil {
		return nil, false, fmt.Errorf("converting cached sale: %w", err)
	}

	return sale, true, nil
}

func (r *SaleCacheRepository) Set(ctx context.Context, _ queries.GetSaleQuery, sale *model.Sale, ttl time.Duration) error {
	if sale == nil {
		return nil
	}

	data, err := json.Marshal(toCachedSale(sale))
	if err != nil {
		return fmt.Errorf("marshalling sale: %w", err)
	}

	if err := r.client.Set(ctx, saleKeyPrefix+sale.ID.String(), data, ttl); err != nil {
		return fmt.Errorf("setting cached sale: %w", err)
	}

	return nil
}

func toCachedSale(sale *model.Sale) cachedSale {
	cached := cachedSale{
		ID:         sale.ID.String(),
		DeviceID:   sale.DeviceID.String(),
		SoldAt:     sale.SoldAt,
		FinalPrice: sale.FinalPrice,
		Lines:      make([]cachedSaleLine, 0, len(sale.Lines)),
		Addons:     make([]cachedSaleAddon, 0, len(sale.Addons)),
		CreatedAt:  sale.CreatedAt,
	}

	for _, line := range sale.Lines {
		entry := cachedSaleLine{CustomizationID: line.CustomizationID.String()}
		if !line.OptionID.IsZero() {
			entry.OptionID = line.OptionID.String()
		}

		cached.Lines = append(cached.Lines, entry)
	}

	for _, addon := range sale.Addons {
		cached.Addons = append(cached.Addons, cachedSaleAddon{
			AddonID:      addon.AddonID.String(),
			ChargedPrice: addon.ChargedPrice,
			Free:         addon.Free,
		})
	}

	return cached
}

func (c cachedSale) toModel() (*model.Sale, error) {
	id, err := model.ParseID(c.ID)
	if err != nil {
		return nil, err
	}

	deviceID, err := model.ParseID(c.DeviceID)
	if err != nil {
		return nil, err
	}

	sale := &model.Sale{
		ID:         id,
		DeviceID:   deviceID,
		SoldAt:     c.SoldAt,
		FinalPrice: c.FinalPrice,
		CreatedAt:  c.CreatedAt,
	}

	for _, line := range c.Lines {
		customizationID, err := model.ParseID(line.CustomizationID)
		if err != nil {
			return nil, err
		}

		saleLine := model.SaleLine{CustomizationID: customizationID}
		if line.OptionID != "" {
			if saleLine.OptionID, err = model.ParseID(line.OptionID); err != nil {
				return nil, err
			}
		}

		sale.Lines = append(sale.Lines, saleLine)
	}

	for _, addon := range c.Addons {
		addonID, err := model.ParseID(addon.AddonID)
		if err != nil {
			return nil, err
		}

		sale.Addons = append(sale.Addons, model.SaleAddon{
			AddonID:      addonID,
			ChargedPrice: addon.ChargedPrice,
			Free:         addon.Free,
		})
	}

	return sale, nil
}
