package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	// SaleReport is the summary of a persisted sale sent to the external
	// catalog system. All ids are external ids.
	SaleReport struct {
		DeviceExternalID *int64
		Customizations   []ReportedCustomization
		Addons           []ReportedAddon
		FinalPrice       decimal.Decimal
		SoldAt           time.Time
	}

	ReportedCustomization struct {
		ExternalID       int64
		Price            decimal.Decimal
		OptionExternalID int64
	}

	ReportedAddon struct {
		ExternalID int64
		Price      decimal.Decimal
	}
)
