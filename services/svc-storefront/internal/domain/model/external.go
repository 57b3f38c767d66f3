package model

import "github.com/shopspring/decimal"

// External catalog records as served by the authoritative catalog source.
type (
	ExternalDevice struct {
		ID             int64
		Code           string
		Name           string
		Description    string
		BasePrice      decimal.Decimal
		Currency       string
		Features       []ExternalFeature
		Customizations []ExternalCustomization
		Addons         []ExternalAddon
	}

	ExternalFeature struct {
		ID          int64
		Name        string
		Description string
	}

	ExternalCustomization struct {
		ID          int64
		Name        string
		Description string
		Options     []ExternalOption
	}

	ExternalOption struct {
		ID              int64
		Code            string
		Name            string
		Description     string
		AdditionalPrice decimal.Decimal
	}

	ExternalAddon struct {
		ID             int64
		Name           string
		Description    string
		Price          decimal.Decimal
		FreeAbovePrice decimal.Decimal
	}
)
