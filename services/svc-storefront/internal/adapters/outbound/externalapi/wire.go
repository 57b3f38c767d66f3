package externalapi

import (
	"time"

	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
	"github.com/shopspring/decimal"
)

// amount is sent as a bare JSON number. decimal.Decimal quotes by default.
type amount decimal.Decimal

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(a).String()), nil
}

type (
	deviceDTO struct {
		ID                int64              `json:"id"`
		Codigo            string             `json:"codigo"`
		Nombre            string             `json:"nombre"`
		Descripcion       string             `json:"descripcion"`
		PrecioBase        decimal.Decimal    `json:"precioBase"`
		Moneda            string             `json:"moneda"`
		Caracteristicas   []featureDTO       `json:"caracteristicas"`
		Personalizaciones []customizationDTO `json:"personalizaciones"`
		Adicionales       []addonDTO         `json:"adicionales"`
	}

	featureDTO struct {
		ID          int64  `json:"id"`
		Nombre      string `json:"nombre"`
		Descripcion string `json:"descripcion"`
	}

	customizationDTO struct {
		ID          int64       `json:"id"`
		Nombre      string      `json:"nombre"`
		Descripcion string      `json:"descripcion"`
		Opciones    []optionDTO `json:"opciones"`
	}

	optionDTO struct {
		ID              int64           `json:"id"`
		Codigo          string          `json:"codigo"`
		Nombre          string          `json:"nombre"`
		Descripcion     string          `json:"descripcion"`
		PrecioAdicional decimal.Decimal `json:"precioAdicional"`
	}

	addonDTO struct {
		ID           int64               `json:"id"`
		Nombre       string              `json:"nombre"`
		Descripcion  string              `json:"descripcion"`
		Precio       decimal.Decimal     `json:"precio"`
		PrecioGratis decimal.NullDecimal `json:"precioGratis"`
	}

	saleReportDTO struct {
		IDDispositivo     *int64                     `json:"idDispositivo"`
		Personalizaciones []reportedCustomizationDTO `json:"personalizaciones"`
		Adicionales       []reportedAddonDTO         `json:"adicionales"`
		PrecioFinal       amount                     `json:"precioFinal"`
		FechaVenta        string                     `json:"fechaVenta"`
	}

	reportedCustomizationDTO struct {
		ID     int64             `json:"id"`
		Precio amount            `json:"precio"`
		Opcion reportedOptionDTO `json:"opcion"`
	}

	reportedOptionDTO struct {
		ID int64 `json:"id"`
	}

	reportedAddonDTO struct {
		ID     int64  `json:"id"`
		Precio amount `json:"precio"`
	}
)

// neverFree is stored when the catalog sends no free-above threshold.
var neverFree = decimal.NewFromInt(-1)

func (d deviceDTO) toModel() model.ExternalDevice {
	device := model.ExternalDevice{
		ID:             d.ID,
		Code:           d.Codigo,
		Name:           d.Nombre,
		Description:    d.Descripcion,
		BasePrice:      d.PrecioBase,
		Currency:       d.Moneda,
		Features:       make([]model.ExternalFeature, 0, len(d.Caracteristicas)),
		Customizations: make([]model.ExternalCustomization, 0, len(d.Personalizaciones)),
		Addons:         make([]model.ExternalAddon, 0, len(d.Adicionales)),
	}

	for _, f := range d.Caracteristicas {
		device.Features = append(device.Features, model.ExternalFeature{
			ID:          f.ID,
			Name:        f.Nombre,
			Description: f.Descripcion,
		})
	}

	for _, c := range d.Personalizaciones {
		customization := model.ExternalCustomization{
			ID:          c.ID,
			Name:        c.Nombre,
			Description: c.Descripcion,
			Options:     make([]model.ExternalOption, 0, len(c.Opciones)),
		}

		for _, o := range c.Opciones {
			customization.Options = append(customization.Options, model.ExternalOption{
				ID:              o.ID,
				Code:            o.Codigo,
				Name:            o.Nombre,
				Description:     o.Descripcion,
				AdditionalPrice: o.PrecioAdicional,
			})
		}

		device.Customizations = append(device.Customizations, customization)
	}

	for _, a := range d.Adicionales {
		freeAbove := neverFree
		if a.PrecioGratis.Valid {
			freeAbove = a.PrecioGratis.Decimal
		}

		device.Addons = append(device.Addons, model.ExternalAddon{
			ID:             a.ID,
			Name:           a.Nombre,
			Description:    a.Descripcion,
			Price:          a.Precio,
			FreeAbovePrice: freeAbove,
		})
	}

	return device
}

func newSaleReportDTO(report model.SaleReport) saleReportDTO {
	dto := saleReportDTO{
		IDDispositivo:     report.DeviceExternalID,
		Personalizaciones: make([]reportedCustomizationDTO, 0, len(report.Customizations)),
		Adicionales:       make([]reportedAddonDTO, 0, len(report.Addons)),
		PrecioFinal:       amount(report.FinalPrice),
		FechaVenta:        report.SoldAt.Format(time.RFC3339Nano),
	}

	for _, c := range report.Customizations {
		dto.Personalizaciones = append(dto.Personalizaciones, reportedCustomizationDTO{
			ID:     c.ExternalID,
			Precio: amount(c.Price),
			Opcion: reportedOptionDTO{ID: c.OptionExternalID},
		})
	}

	for _, a := range report.Addons {
		dto.Adicionales = append(dto.Adicionales, reportedAddonDTO{
			ID:     a.ExternalID,
			Precio: amount(a.Price),
		})
	}

	return dto
}
