package repos

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
	"github.com/architeacher/storefront/services/svc-storefront/internal/ports"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	devicesTable        = "devices"
	featuresTable       = "features"
	customizationsTable = "customizations"
	optionsTable        = "options"
	addonsTable         = "addons"
)

var (
	deviceColumns        = []string{"id", "external_id", "code", "name", "description", "base_price", "currency", "created_at", "updated_at"}
	featureColumns       = []string{"id", "device_id", "external_id", "name", "description"}
	customizationColumns = []string{"id", "device_id", "external_id", "name", "description"}
	optionColumns        = []string{"id", "customization_id", "external_id", "code", "name", "description", "additional_price"}
	addonColumns         = []string{"id", "device_id", "external_id", "name", "description", "price", "free_above_price"}
)

type (
	// CatalogRepository persists devices and their nested catalog rows.
	CatalogRepository struct {
		pool    PoolOps
		scanner Scanner
		logger  logger.Logger
	}

	// catalogWriter runs the natural key lookups and upserts of a sync run
	// against one transaction.
	catalogWriter struct {
		db      querier
		scanner Scanner
	}

	deviceRow struct {
		ID          string    `db:"id"`
		ExternalID  *int64    `db:"external_id"`
		Code        string    `db:"code"`
		Name        string    `db:"name"`
		Description string    `db:"description"`
		BasePrice   string    `db:"base_price"`
		Currency    string    `db:"currency"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	featureRow struct {
		ID          string `db:"id"`
		DeviceID    string `db:"device_id"`
		ExternalID  int64  `db:"external_id"`
		Name        string `db:"name"`
		Description string `db:"description"`
	}

	customizationRow struct {
		ID          string `db:"id"`
		DeviceID    string `db:"device_id"`
		ExternalID  int64  `db:"external_id"`
		Name        string `db:"name"`
		Description string `db:"description"`
	}

	optionRow struct {
		ID              string `db:"id"`
		CustomizationID string `db:"customization_id"`
		ExternalID      int64  `db:"external_id"`
		Code            string `db:"code"`
		Name            string `db:"name"`
		Description     string `db:"description"`
		AdditionalPrice string `db:"additional_price"`
	}

	addonRow struct {
		ID             string `db:"id"`
		DeviceID       string `db:"device_id"`
		ExternalID     int64  `db:"external_id"`
		Name           string `db:"name"`
		Description    string `db:"description"`
		Price          string `db:"price"`
		FreeAbovePrice string `db:"free_above_price"`
	}
)

func NewCatalogRepository(pool PoolOps, scanner Scanner, log logger.Logger) *CatalogRepository {
	return &CatalogRepository{
		pool:    pool,
		scanner: scanner,
		logger:  log,
	}
}

func (r *CatalogRepository) FetchDevice(ctx context.Context, id model.ID) (*model.Device, error) {
	row, err := selectOne[deviceRow](ctx, r.pool, r.scanner,
		psql.Select(deviceColumns...).From(devicesTable).Where(sq.Eq{"id": id.String()}),
	)
	if err != nil {
		return nil, err
	}

	if row == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrDeviceNotFound, id)
	}

	return row.toModel()
}

func (r *CatalogRepository) FetchCustomization(ctx context.Context, id model.ID) (*model.Customization, error) {
	row, err := selectOne[customizationRow](ctx, r.pool, r.scanner,
		psql.Select(customizationColumns...).From(customizationsTable).Where(sq.Eq{"id": id.String()}),
	)
	if err != nil {
		return nil, err
	}

	if row == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrCustomizationNotFound, id)
	}

	return row.toModel()
}

func (r *CatalogRepository) FetchOption(ctx context.Context, id model.ID) (*model.Option, error) {
	row, err := selectOne[optionRow](ctx, r.pool, r.scanner,
		psql.Select(optionColumns...).From(optionsTable).Where(sq.Eq{"id": id.String()}),
	)
	if err != nil {
		return nil, err
	}

	if row == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrOptionNotFound, id)
	}

	return row.toModel()
}

func (r *CatalogRepository) FetchAddon(ctx context.Context, id model.ID) (*model.Addon, error) {
	row, err := selectOne[addonRow](ctx, r.pool, r.scanner,
		psql.Select(addonColumns...).From(addonsTable).Where(sq.Eq{"id": id.String()}),
	)
	if err != nil {
		return nil, err
	}

	if row == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrAddonNotFound, id)
	}

	return row.toModel()
}

func (r *CatalogRepository) ListOptionsByCustomization(ctx context.Context, customizationID model.ID) ([]model.Option, error) {
	rows, err := selectAll[optionRow](ctx, r.pool, r.scanner,
		psql.Select(optionColumns...).
			From(optionsTable).
			Where(sq.Eq{"customization_id": customizationID.String()}).
			OrderBy("id ASC"),
	)
	if err != nil {
		return nil, err
	}

	options := make([]model.Option, 0, len(rows))

	for index := range rows {
		option, err := rows[index].toModel()
		if err != nil {
			return nil, err
		}

		options = append(options, *option)
	}

	return options, nil
}

func (r *CatalogRepository) InTx(ctx context.Context, fn func(ctx context.Context, w ports.CatalogWriter) error) error {
	return withTx(ctx, r.pool, r.logger, func(tx pgx.Tx) error {
		return fn(ctx, &catalogWriter{db: tx, scanner: r.scanner})
	})
}

func (r *CatalogRepository) Name() string {
	return "postgres"
}

func (r *CatalogRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (w *catalogWriter) FindDeviceByCode(ctx context.Context, code string) (*model.Device, error) {
	row, err := selectOne[deviceRow](ctx, w.db, w.scanner,
		psql.Select(deviceColumns...).From(devicesTable).Where(sq.Eq{"code": code}),
	)
	if err != nil || row == nil {
		return nil, err
	}

	return row.toModel()
}

func (w *catalogWriter) FindFeatureByName(ctx context.Context, deviceID model.ID, name string) (*model.Feature, error) {
	row, err := selectOne[featureRow](ctx, w.db, w.scanner,
		psql.Select(featureColumns...).From(featuresTable).
			Where(sq.Eq{"device_id": deviceID.String(), "name": name}),
	)
	if err != nil || row == nil {
		return nil, err
	}

	return row.toModel()
}

func (w *catalogWriter) FindCustomizationByName(ctx context.Context, deviceID model.ID, name string) (*model.Customization, error) {
	row, err := selectOne[customizationRow](ctx, w.db, w.scanner,
		psql.Select(customizationColumns...).From(customizationsTable).
			Where(sq.Eq{"device_id": deviceID.String(), "name": name}),
	)
	if err != nil || row == nil {
		return nil, err
	}

	return row.toModel()
}

func (w *catalogWriter) FindOptionByCode(ctx context.Context, customizationID model.ID, code string) (*model.Option, error) {
	row, err := selectOne[optionRow](ctx, w.db, w.scanner,
		psql.Select(optionColumns...).From(optionsTable).
			Where(sq.Eq{"code": code, "customization_id": customizationID.String()}),
	)
	if err != nil || row == nil {
		return nil, err
	}

	return row.toModel()
}

func (w *catalogWriter) FindAddonByName(ctx context.Context, deviceID model.ID, name string) (*model.Addon, error) {
	row, err := selectOne[addonRow](ctx, w.db, w.scanner,
		psql.Select(addonColumns...).From(addonsTable).
			Where(sq.Eq{"device_id": deviceID.String(), "name": name}),
	)
	if err != nil || row == nil {
		return nil, err
	}

	return row.toModel()
}

func (w *catalogWriter) SaveDevice(ctx context.Context, device *model.Device) error {
	return exec(ctx, w.db, psql.Insert(devicesTable).
		Columns(deviceColumns...).
		Values(
			device.ID.String(),
			device.ExternalID,
			device.Code,
			device.Name,
			device.Description,
			device.BasePrice.String(),
			device.Currency.String(),
			device.CreatedAt,
			device.UpdatedAt,
		).
		Suffix("ON CONFLICT (id) DO UPDATE SET "+
			"external_id = EXCLUDED.external_id, name = EXCLUDED.name, description = EXCLUDED.description, "+
			"base_price = EXCLUDED.base_price, currency = EXCLUDED.currency, updated_at = EXCLUDED.updated_at"),
	)
}

func (w *catalogWriter) SaveFeature(ctx context.Context, feature *model.Feature) error {
	return exec(ctx, w.db, psql.Insert(featuresTable).
		Columns(featureColumns...).
		Values(
			feature.ID.String(),
			feature.DeviceID.String(),
			feature.ExternalID,
			feature.Name,
			feature.Description,
		).
		Suffix("ON CONFLICT (id) DO UPDATE SET "+
			"external_id = EXCLUDED.external_id, description = EXCLUDED.description"),
	)
}

func (w *catalogWriter) SaveCustomization(ctx context.Context, customization *model.Customization) error {
	return exec(ctx, w.db, psql.Insert(customizationsTable).
		Columns(customizationColumns...).
		Values(
			customization.ID.String(),
			customization.DeviceID.String(),
			customization.ExternalID,
			customization.Name,
			customization.Description,
		).
		Suffix("ON CONFLICT (id) DO UPDATE SET "+
			"external_id = EXCLUDED.external_id, description = EXCLUDED.description"),
	)
}

func (w *catalogWriter) SaveOption(ctx context.Context, option *model.Option) error {
	return exec(ctx, w.db, psql.Insert(optionsTable).
		Columns(optionColumns...).
		Values(
			option.ID.String(),
			option.CustomizationID.String(),
			option.ExternalID,
			option.Code,
			option.Name,
			option.Description,
			option.AdditionalPrice.String(),
		).
		Suffix("ON CONFLICT (id) DO UPDATE SET "+
			"external_id = EXCLUDED.external_id, name = EXCLUDED.name, description = EXCLUDED.description, "+
			"additional_price = EXCLUDED.additional_price"),
	)
}

func (w *catalogWriter) SaveAddon(ctx context.Context, addon *model.Addon) error {
	return exec(ctx, w.db, psql.Insert(addonsTable).
		Columns(addonColumns...).
		Values(
			addon.ID.String(),
			addon.DeviceID.String(),
			addon.ExternalID,
			addon.Name,
			addon.Description,
			addon.Price.String(),
			addon.FreeAbovePrice.String(),
		).
		Suffix("ON CONFLICT (id) DO UPDATE SET "+
			"external_id = EXCLUDED.external_id, description = EXCLUDED.description, "+
			"price = EXCLUDED.price, free_above_price = EXCLUDED.free_above_price"),
	)
}

func (row deviceRow) toModel() (*model.Device, error) {
	id, err := parseRowID(devicesTable, row.ID)
	if err != nil {
		return nil, err
	}

	basePrice, err := parseRowDecimal(devicesTable, "base_price", row.BasePrice)
	if err != nil {
		return nil, err
	}

	currency, err := model.ParseCurrency(row.Currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	return &model.Device{
		ID:          id,
		ExternalID:  row.ExternalID,
		Code:        row.Code,
		Name:        row.Name,
		Description: row.Description,
		BasePrice:   basePrice,
		Currency:    currency,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

func (row featureRow) toModel() (*model.Feature, error) {
	id, err := parseRowID(featuresTable, row.ID)
	if err != nil {
		return nil, err
	}

	deviceID, err := parseRowID(featuresTable, row.DeviceID)
	if err != nil {
		return nil, err
	}

	return &model.Feature{
		ID:          id,
		DeviceID:    deviceID,
		ExternalID:  row.ExternalID,
		Name:        row.Name,
		Description: row.Description,
	}, nil
}

func (row customizationRow) toModel() (*model.Customization, error) {
	id, err := parseRowID(customizationsTable, row.ID)
	if err != nil {
		return nil, err
	}

	deviceID, err := parseRowID(customizationsTable, row.DeviceID)
	if err != nil {
		return nil, err
	}

	return &model.Customization{
		ID:          id,
		DeviceID:    deviceID,
		ExternalID:  row.ExternalID,
		Name:        row.Name,
		Description: row.Description,
	}, nil
}

func (row optionRow) toModel() (*model.Option, error) {
	id, err := parseRowID(optionsTable, row.ID)
	if err != nil {
		return nil, err
	}

	customizationID, err := parseRowID(optionsTable, row.CustomizationID)
	if err != nil {
		return nil, err
	}

	additionalPrice, err := parseRowDecimal(optionsTable, "additional_price", row.AdditionalPrice)
	if err != nil {
		return nil, err
	}

	return &model.Option{
		ID:              id,
		CustomizationID: customizationID,
		ExternalID:      row.ExternalID,
		Code:            row.Code,
		Name:            row.Name,
		Description:     row.Description,
		AdditionalPrice: additionalPrice,
	}, nil
}

func (row addonRow) toModel() (*model.Addon, error) {
	id, err := parseRowID(addonsTable, row.ID)
	if err != nil {
		return nil, err
	}

	deviceID, err := parseRowID(addonsTable, row.DeviceID)
	if err != nil {
		return nil, err
	}

	price, err := parseRowDecimal(addonsTable, "price", row.Price)
	if err != nil {
		return nil, err
	}

	freeAbove, err := parseRowDecimal(addonsTable, "free_above_price", row.FreeAbovePrice)
	if err != nil {
		return nil, err
	}

	return &model.Addon{
		ID:             id,
		DeviceID:       deviceID,
		ExternalID:     row.ExternalID,
		Name:           row.Name,
		Description:    row.Description,
		Price:          price,
		FreeAbovePrice: freeAbove,
	}, nil
}

func parseRowID(table, value string) (model.ID, error) {
	id, err := model.ParseID(value)
	if err != nil {
		return model.ID{}, fmt.Errorf("%w: invalid id in %s: %v", model.ErrDatabaseQuery, table, err)
	}

	return id, nil
}

func parseRowDecimal(table, column, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: invalid %s.%s: %v", model.ErrDatabaseQuery, table, column, err)
	}

	return d, nil
}
