package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Selection is one requested (customization, option) pair.
	Selection struct {
		CustomizationID ID
		OptionID        ID
	}

	// SaleRequest carries what a caller asks to buy. Add-on order is significant.
	SaleRequest struct {
		DeviceID   ID
		SoldAt     *time.Time
		Selections []Selection
		AddonIDs   []ID
	}

	Sale struct {
		ID         ID
		DeviceID   ID
		SoldAt     time.Time
		FinalPrice decimal.Decimal
		Lines      []SaleLine
		Addons     []SaleAddon
		CreatedAt  time.Time
	}

	// SaleLine records the option chosen for a customization. OptionID is zero
	// for lines recorded without the chosen option.
	SaleLine struct {
		CustomizationID ID
		OptionID        ID
	}

	SaleAddon struct {
		AddonID      ID
		ChargedPrice decimal.Decimal
		Free         bool
	}
)

// CustomizationIDs returns the distinct customizations touched by the sale,
// in line order.
func (s *Sale) CustomizationIDs() []ID {
	seen := make(map[ID]struct{}, len(s.Lines))
	ids := make([]ID, 0, len(s.Lines))

	for _, line := range s.Lines {
		if _, ok := seen[line.CustomizationID]; ok {
			continue
		}

		seen[line.CustomizationID] = struct{}{}
		ids = append(ids, line.CustomizationID)
	}

	return ids
}

func (s *Sale) AddonIDs() []ID {
	ids := make([]ID, 0, len(s.Addons))
	for _, addon := range s.Addons {
		ids = append(ids, addon.AddonID)
	}

	return ids
}
