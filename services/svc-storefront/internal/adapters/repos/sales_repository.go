package repos

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
	"github.com/jackc/pgx/v5"
)

const (
	salesTable      = "sales"
	saleLinesTable  = "sale_lines"
	saleAddonsTable = "sale_addons"
)

var (
	saleColumns      = []string{"id", "device_id", "sold_at", "final_price", "created_at"}
	saleLineColumns  = []string{"sale_id", "position", "customization_id", "option_id"}
	saleAddonColumns = []string{"sale_id", "position", "addon_id", "charged_price", "free"}
)

type (
	// SalesRepository persists sales with their lines and add-ons.
	SalesRepository struct {
		pool    PoolOps
		scanner Scanner
		logger  logger.Logger
	}

	saleRow struct {
		ID         string    `db:"id"`
		DeviceID   string    `db:"device_id"`
		SoldAt     time.Time `db:"sold_at"`
		FinalPrice string    `db:"final_price"`
		CreatedAt  time.Time `db:"created_at"`
	}

	saleLineRow struct {
		CustomizationID string  `db:"customization_id"`
		OptionID        *string `db:"option_id"`
	}

	saleAddonRow struct {
		AddonID      string `db:"addon_id"`
		ChargedPrice string `db:"charged_price"`
		Free         bool   `db:"free"`
	}
)

func NewSalesRepository(pool PoolOps, scanner Scanner, log logger.Logger) *SalesRepository {
	return &SalesRepository{
		pool:    pool,
		scanner: scanner,
		logger:  log,
	}
}

func (r *SalesRepository) Save(ctx context.Context, sale *model.Sale) error {
	return withTx(ctx, r.pool, r.logger, func(tx pgx.Tx) error {
		err := exec(ctx, tx, psql.Insert(salesTable).
			Columns(saleColumns...).
			Values(
				sale.ID.String(),
				sale.DeviceID.String(),
				sale.SoldAt,
				sale.FinalPrice.String(),
				sale.CreatedAt,
			),
		)
		if err != nil {
			return err
		}

		if len(sale.Lines) > 0 {
			lines := psql.Insert(saleLinesTable).Columns(saleLineColumns...)

			for position, line := range sale.Lines {
				lines = lines.Values(sale.ID.String(), position, line.CustomizationID.String(), nullableID(line.OptionID))
			}

			if err := exec(ctx, tx, lines); err != nil {
				return err
			}
		}

		if len(sale.Addons) > 0 {
			addons := psql.Insert(saleAddonsTable).Columns(saleAddonColumns...)

			for position, addon := range sale.Addons {
				addons = addons.Values(sale.ID.String(), position, addon.AddonID.String(), addon.ChargedPrice.String(), addon.Free)
			}

			if err := exec(ctx, tx, addons); err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *SalesRepository) FetchByID(ctx context.Context, id model.ID) (*model.Sale, error) {
	row, err := selectOne[saleRow](ctx, r.pool, r.scanner,
		psql.Select(saleColumns...).From(salesTable).Where(sq.Eq{"id": id.String()}),
	)
	if err != nil {
		return nil, err
	}

	if row == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrSaleNotFound, id)
	}

	sale, err := row.toModel()
	if err != nil {
		return nil, err
	}

	lines, err := selectAll[saleLineRow](ctx, r.pool, r.scanner,
		psql.Select("customization_id", "option_id").
			From(saleLinesTable).
			Where(sq.Eq{"sale_id": id.String()}).
			OrderBy("position ASC"),
	)
	if err != nil {
		return nil, err
	}

	for _, line := range lines {
		saleLine, err := line.toModel()
		if err != nil {
			return nil, err
		}

		sale.Lines = append(sale.Lines, saleLine)
	}

	addons, err := selectAll[saleAddonRow](ctx, r.pool, r.scanner,
		psql.Select("addon_id", "charged_price", "free").
			From(saleAddonsTable).
			Where(sq.Eq{"sale_id": id.String()}).
			OrderBy("position ASC"),
	)
	if err != nil {
		return nil, err
	}

	for _, addon := range addons {
		saleAddon, err := addon.toModel()
		if err != nil {
			return nil, err
		}

		sale.Addons = append(sale.Addons, saleAddon)
	}

	return sale, nil
}

func (row saleRow) toModel() (*model.Sale, error) {
	id, err := parseRowID(salesTable, row.ID)
	if err != nil {
		return nil, err
	}

	deviceID, err := parseRowID(salesTable, row.DeviceID)
	if err != nil {
		return nil, err
	}

	finalPrice, err := parseRowDecimal(salesTable, "final_price", row.FinalPrice)
	if err != nil {
		return nil, err
	}

	return &model.Sale{
		ID:         id,
		DeviceID:   deviceID,
		SoldAt:     row.SoldAt,
		FinalPrice: finalPrice,
		CreatedAt:  row.CreatedAt,
	}, nil
}

func (row saleLineRow) toModel() (model.SaleLine, error) {
	customizationID, err := parseRowID(saleLinesTable, row.CustomizationID)
	if err != nil {
		return model.SaleLine{}, err
	}

	line := model.SaleLine{CustomizationID: customizationID}

	if row.OptionID != nil {
		line.OptionID, err = parseRowID(saleLinesTable, *row.OptionID)
		if err != nil {
			return model.SaleLine{}, err
		}
	}

	return line, nil
}

func (row saleAddonRow) toModel() (model.SaleAddon, error) {
	addonID, err := parseRowID(saleAddonsTable, row.AddonID)
	if err != nil {
		return model.SaleAddon{}, err
	}

	charged, err := parseRowDecimal(saleAddonsTable, "charged_price", row.ChargedPrice)
	if err != nil {
		return model.SaleAddon{}, err
	}

	return model.SaleAddon{
		AddonID:      addonID,
		ChargedPrice: charged,
		Free:         row.Free,
	}, nil
}

func nullableID(id model.ID) *string {
	if id.IsZero() {
		return nil
	}

	value := id.String()

	return &value
}
