package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Device is a sellable product definition. Code is the natural key shared
	// with the external catalog; ExternalID stays nil until the first sync.
	Device struct {
		ID             ID
		ExternalID     *int64
		Code           string
		Name           string
		Description    string
		BasePrice      decimal.Decimal
		Currency       Currency
		Features       []Feature
		Customizations []Customization
		Addons         []Addon
		CreatedAt      time.Time
		UpdatedAt      time.Time
	}

	Feature struct {
		ID          ID
		DeviceID    ID
		ExternalID  int64
		Name        string
		Description string
	}

	Customization struct {
		ID          ID
		DeviceID    ID
		ExternalID  int64
		Name        string
		Description string
		Options     []Option
	}

	// Option is one choice within a customization. AdditionalPrice may be
	// negative.
	Option struct {
		ID              ID
		CustomizationID ID
		ExternalID      int64
		Code            string
		Name            string
		Description     string
		AdditionalPrice decimal.Decimal
	}

	// Addon is an optional extra. A negative FreeAbovePrice means it is never free.
	Addon struct {
		ID             ID
		DeviceID       ID
		ExternalID     int64
		Name           string
		Description    string
		Price          decimal.Decimal
		FreeAbovePrice decimal.Decimal
	}
)

// IsFreeAt reports whether the promotion waives the add-on once the running
// price has reached the threshold.
func (a Addon) IsFreeAt(running decimal.Decimal) bool {
	return !a.FreeAbovePrice.IsNegative() && running.GreaterThanOrEqual(a.FreeAbovePrice)
}

func (d *Device) ExternalIDValue() int64 {
	if d.ExternalID == nil {
		return 0
	}

	return *d.ExternalID
}
