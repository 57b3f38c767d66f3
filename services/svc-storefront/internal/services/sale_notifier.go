package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
	"github.com/architeacher/storefront/services/svc-storefront/internal/ports"
	"github.com/shopspring/decimal"
)

// SaleNotifier reports persisted sales to the catalog system. The report is
// built synchronously; delivery runs detached from the caller with its own
// timeout, and delivery failures are only logged.
type SaleNotifier struct {
	catalog  ports.CatalogReader
	reporter ports.SalesReporter
	timeout  time.Duration
	logger   logger.Logger

	inflight sync.WaitGroup
}

var _ ports.SaleNotifier = (*SaleNotifier)(nil)

func NewSaleNotifier(
	catalog ports.CatalogReader,
	reporter ports.SalesReporter,
	timeout time.Duration,
	log logger.Logger,
) *SaleNotifier {
	return &SaleNotifier{
		catalog:  catalog,
		reporter: reporter,
		timeout:  timeout,
		logger:   log.Component("sale-notifier"),
	}
}

// Notify returns an error only when the report cannot be built.
func (n *SaleNotifier) Notify(ctx context.Context, sale *model.Sale) error {
	report, err := n.BuildReport(ctx, sale)
	if err != nil {
		return fmt.Errorf("building report for sale %s: %w", sale.ID, err)
	}

	deliveryCtx := context.WithoutCancel(ctx)

	n.inflight.Add(1)

	go func() {
		defer n.inflight.Done()

		ctx := deliveryCtx
		if n.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(deliveryCtx, n.timeout)
			defer cancel()
		}

		log := n.logger.WithContext(ctx)

		if err := n.reporter.Report(ctx, report); err != nil {
			log.Warn().Err(err).Str("sale_id", sale.ID.String()).Msg("sale report failed")

			return
		}

		log.Debug().Str("sale_id", sale.ID.String()).Msg("sale reported")
	}()

	return nil
}

// Wait blocks until in-flight deliveries finish.
func (n *SaleNotifier) Wait() {
	n.inflight.Wait()
}

// BuildReport resolves the external ids of everything the sale references.
func (n *SaleNotifier) BuildReport(ctx context.Context, sale *model.Sale) (model.SaleReport, error) {
	device, err := n.catalog.FetchDevice(ctx, sale.DeviceID)
	if err != nil {
		return model.SaleReport{}, err
	}

	report := model.SaleReport{
		DeviceExternalID: device.ExternalID,
		Customizations:   make([]model.ReportedCustomization, 0, len(sale.Lines)),
		Addons:           make([]model.ReportedAddon, 0, len(sale.Addons)),
		FinalPrice:       sale.FinalPrice,
		SoldAt:           sale.SoldAt,
	}

	seen := make(map[model.ID]struct{}, len(sale.Lines))

	for _, line := range sale.Lines {
		// one entry per customization; the first line decides its option
		if _, ok := seen[line.CustomizationID]; ok {
			continue
		}

		seen[line.CustomizationID] = struct{}{}

		customization, err := n.catalog.FetchCustomization(ctx, line.CustomizationID)
		if err != nil {
			return model.SaleReport{}, err
		}

		option, err := n.chosenOption(ctx, line)
		if err != nil {
			return model.SaleReport{}, err
		}

		report.Customizations = append(report.Customizations, model.ReportedCustomization{
			ExternalID:       customization.ExternalID,
			Price:            decimal.Zero,
			OptionExternalID: option.ExternalID,
		})
	}

	for _, saleAddon := range sale.Addons {
		addon, err := n.catalog.FetchAddon(ctx, saleAddon.AddonID)
		if err != nil {
			return model.SaleReport{}, err
		}

		report.Addons = append(report.Addons, model.ReportedAddon{
			ExternalID: addon.ExternalID,
			Price:      addon.Price,
		})
	}

	return report, nil
}

// chosenOption returns the option recorded on the line. Lines recorded
// without one fall back to the first option of the customization in storage
// order.
func (n *SaleNotifier) chosenOption(ctx context.Context, line model.SaleLine) (*model.Option, error) {
	if !line.OptionID.IsZero() {
		return n.catalog.FetchOption(ctx, line.OptionID)
	}

	options, err := n.catalog.ListOptionsByCustomization(ctx, line.CustomizationID)
	if err != nil {
		return nil, err
	}

	switch len(options) {
	case 0:
		return nil, fmt.Errorf("%w: %s", model.ErrNoOptionsForCustomization, line.CustomizationID)
	case 1:
	default:
		log := n.logger.WithContext(ctx)
		log.Warn().
			Str("customization_id", line.CustomizationID.String()).
			Int("options", len(options)).
			Str("picked_option_id", options[0].ID.String()).
			Msg("sale line has no recorded option, picking the first")
	}

	return &options[0], nil
}
