package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
	"github.com/architeacher/storefront/services/svc-storefront/internal/ports"
)

type (
	// SaleRegistrar prices and records sales. Every reference is resolved and
	// validated before anything is written.
	SaleRegistrar struct {
		catalog   ports.CatalogReader
		sales     ports.SaleStore
		notifier  ports.SaleNotifier
		publisher ports.EventPublisher
		logger    logger.Logger
		now       func() time.Time

		inflight sync.WaitGroup
	}

	RegistrarOption func(*SaleRegistrar)

	resolvedSelection struct {
		customization *model.Customization
		option        *model.Option
	}
)

var _ ports.SaleRegistrar = (*SaleRegistrar)(nil)

func WithRegistrarClock(now func() time.Time) RegistrarOption {
	return func(r *SaleRegistrar) {
		r.now = now
	}
}

func NewSaleRegistrar(
	catalog ports.CatalogReader,
	sales ports.SaleStore,
	notifier ports.SaleNotifier,
	publisher ports.EventPublisher,
	log logger.Logger,
	opts ...RegistrarOption,
) *SaleRegistrar {
	r := &SaleRegistrar{
		catalog:   catalog,
		sales:     sales,
		notifier:  notifier,
		publisher: publisher,
		logger:    log.Component("sale-registrar"),
		now:       func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *SaleRegistrar) RegisterSale(ctx context.Context, req model.SaleRequest) (*model.Sale, error) {
	log := r.logger.WithContext(ctx)

	device, err := r.catalog.FetchDevice(ctx, req.DeviceID)
	if err != nil {
		return nil, err
	}

	selections, addons, err := r.resolve(ctx, device, req)
	if err != nil {
		return nil, err
	}

	quote := model.NewPriceQuote(device.BasePrice)
	lines := make([]model.SaleLine, 0, len(selections))

	for _, selection := range selections {
		quote.ApplyOption(*selection.option)
		lines = append(lines, model.SaleLine{
			CustomizationID: selection.customization.ID,
			OptionID:        selection.option.ID,
		})
	}

	saleAddons := make([]model.SaleAddon, 0, len(addons))

	for _, addon := range addons {
		charged, free := quote.ApplyAddon(*addon)
		saleAddons = append(saleAddons, model.SaleAddon{
			AddonID:      addon.ID,
			ChargedPrice: charged,
			Free:         free,
		})
	}

	if quote.Total().IsNegative() {
		validation := model.NewValidationErrors()
		validation.Add("finalPrice", fmt.Sprintf("final price %s is negative", quote.Total()), model.CodeNegativeFinalPrice)

		return nil, validation
	}

	now := r.now()
	soldAt := now
	if req.SoldAt != nil {
		soldAt = req.SoldAt.UTC()
	}

	sale := &model.Sale{
		ID:         model.NewID(),
		DeviceID:   device.ID,
		SoldAt:     soldAt,
		FinalPrice: quote.Total(),
		Lines:      lines,
		Addons:     saleAddons,
		CreatedAt:  now,
	}

	if err := r.sales.Save(ctx, sale); err != nil {
		return nil, err
	}

	log.Info().
		Str("sale_id", sale.ID.String()).
		Str("device_id", device.ID.String()).
		Str("base_price", quote.Base().String()).
		Str("final_price", sale.FinalPrice.String()).
		Int("options", len(lines)).
		Int("addons", len(saleAddons)).
		Msg("sale registered")

	r.dispatch(ctx, sale)

	return sale, nil
}

// Wait blocks until every event and notification handed off by RegisterSale
// has been dispatched.
func (r *SaleRegistrar) Wait() {
	r.inflight.Wait()
}

// dispatch publishes the domain event and reports the sale off the request
// path. Neither outcome reaches the caller.
func (r *SaleRegistrar) dispatch(ctx context.Context, sale *model.Sale) {
	detached := context.WithoutCancel(ctx)

	r.inflight.Add(1)

	go func() {
		defer r.inflight.Done()

		log := r.logger.WithContext(detached)

		if err := r.publisher.PublishSaleRegistered(detached, sale); err != nil {
			log.Warn().Err(err).Str("sale_id", sale.ID.String()).Msg("failed to publish sale registered event")
		}

		if err := r.notifier.Notify(detached, sale); err != nil {
			log.Warn().
				Err(err).
				Str("sale_id", sale.ID.String()).
				Msg("sale could not be reported to the catalog system")
		}
	}()
}

// resolve loads every referenced row and checks that all of them belong to
// the device. Lookups stop at the first missing row; ownership problems are
// collected.
func (r *SaleRegistrar) resolve(
	ctx context.Context,
	device *model.Device,
	req model.SaleRequest,
) ([]resolvedSelection, []*model.Addon, error) {
	validation := model.NewValidationErrors()
	selections := make([]resolvedSelection, 0, len(req.Selections))

	for i, selection := range req.Selections {
		customization, err := r.catalog.FetchCustomization(ctx, selection.CustomizationID)
		if err != nil {
			return nil, nil, err
		}

		option, err := r.catalog.FetchOption(ctx, selection.OptionID)
		if err != nil {
			return nil, nil, err
		}

		if customization.DeviceID != device.ID {
			validation.Add(
				fmt.Sprintf("customizations[%d].customizationId", i),
				fmt.Sprintf("customization %s does not belong to device %s", customization.ID, device.ID),
				model.CodeCustomizationNotInDevice,
			)
		}

		if option.CustomizationID != customization.ID {
			validation.Add(
				fmt.Sprintf("customizations[%d].optionId", i),
				fmt.Sprintf("option %s does not belong to customization %s", option.ID, customization.ID),
				model.CodeOptionNotInCustomization,
			)
		}

		selections = append(selections, resolvedSelection{customization: customization, option: option})
	}

	addons := make([]*model.Addon, 0, len(req.AddonIDs))

	for i, addonID := range req.AddonIDs {
		addon, err := r.catalog.FetchAddon(ctx, addonID)
		if err != nil {
			return nil, nil, err
		}

		if addon.DeviceID != device.ID {
			validation.Add(
				fmt.Sprintf("addonIds[%d]", i),
				fmt.Sprintf("add-on %s does not belong to device %s", addon.ID, device.ID),
				model.CodeAddonNotInDevice,
			)
		}

		addons = append(addons, addon)
	}

	if validation.HasErrors() {
		return nil, nil, validation
	}

	return selections, addons, nil
}
