package ports

import (
	"context"

	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
)

type (
	// CatalogReader resolves catalog rows by surrogate id. Fetch methods
	// return the matching NotFound error when the row does not exist.
	CatalogReader interface {
		FetchDevice(ctx context.Context, id model.ID) (*model.Device, error)
		FetchCustomization(ctx context.Context, id model.ID) (*model.Customization, error)
		FetchOption(ctx context.Context, id model.ID) (*model.Option, error)
		FetchAddon(ctx context.Context, id model.ID) (*model.Addon, error)

		// ListOptionsByCustomization returns the options of a customization in
		// storage order.
		ListOptionsByCustomization(ctx context.Context, customizationID model.ID) ([]model.Option, error)
	}

	// CatalogWriter looks rows up by natural key and upserts them. Find
	// methods return nil, nil when nothing matches.
	CatalogWriter interface {
		FindDeviceByCode(ctx context.Context, code string) (*model.Device, error)
		FindFeatureByName(ctx context.Context, deviceID model.ID, name string) (*model.Feature, error)
		FindCustomizationByName(ctx context.Context, deviceID model.ID, name string) (*model.Customization, error)
		FindOptionByCode(ctx context.Context, customizationID model.ID, code string) (*model.Option, error)
		FindAddonByName(ctx context.Context, deviceID model.ID, name string) (*model.Addon, error)

		SaveDevice(ctx context.Context, device *model.Device) error
		SaveFeature(ctx context.Context, feature *model.Feature) error
		SaveCustomization(ctx context.Context, customization *model.Customization) error
		SaveOption(ctx context.Context, option *model.Option) error
		SaveAddon(ctx context.Context, addon *model.Addon) error
	}

	CatalogStore interface {
		CatalogReader

		// InTx runs fn inside one transaction, committing when it returns nil.
		InTx(ctx context.Context, fn func(ctx context.Context, w CatalogWriter) error) error
	}
)
