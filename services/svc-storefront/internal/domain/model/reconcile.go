package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Outcome is the result of reconciling one local row against its external record.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
)

// Changed reports whether the row has to be written.
func (o Outcome) Changed() bool {
	return o == OutcomeCreated || o == OutcomeUpdated
}

// The attribute sets below are the fields the external catalog is
// authoritative for. Anything else on a row is local.
type (
	DeviceAttributes struct {
		ExternalID  int64
		Name        string
		Description string
		BasePrice   decimal.Decimal
		Currency    Currency
	}

	FeatureAttributes struct {
		ExternalID  int64
		Description string
	}

	CustomizationAttributes struct {
		ExternalID  int64
		Description string
	}

	OptionAttributes struct {
		ExternalID      int64
		Name            string
		Description     string
		AdditionalPrice decimal.Decimal
	}

	AddonAttributes struct {
		ExternalID     int64
		Description    string
		Price          decimal.Decimal
		FreeAbovePrice decimal.Decimal
	}
)

func (a DeviceAttributes) Equal(b DeviceAttributes) bool {
	return a.ExternalID == b.ExternalID &&
		a.Name == b.Name &&
		a.Description == b.Description &&
		a.BasePrice.Equal(b.BasePrice) &&
		a.Currency == b.Currency
}

func (a OptionAttributes) Equal(b OptionAttributes) bool {
	return a.ExternalID == b.ExternalID &&
		a.Name == b.Name &&
		a.Description == b.Description &&
		a.AdditionalPrice.Equal(b.AdditionalPrice)
}

func (a AddonAttributes) Equal(b AddonAttributes) bool {
	return a.ExternalID == b.ExternalID &&
		a.Description == b.Description &&
		a.Price.Equal(b.Price) &&
		a.FreeAbovePrice.Equal(b.FreeAbovePrice)
}

func (d *Device) Attributes() DeviceAttributes {
	return DeviceAttributes{
		ExternalID:  d.ExternalIDValue(),
		Name:        d.Name,
		Description: d.Description,
		BasePrice:   d.BasePrice,
		Currency:    d.Currency,
	}
}

// ValidateExternalDevice checks the external record before any of it is reconciled.
func ValidateExternalDevice(ext ExternalDevice) error {
	if strings.TrimSpace(ext.Code) == "" {
		return fmt.Errorf("%w: device %d has no code", ErrInvalidCatalogRecord, ext.ID)
	}

	if ext.BasePrice.IsNegative() {
		return fmt.Errorf("%w: device %s has negative base price %s", ErrInvalidCatalogRecord, ext.Code, ext.BasePrice)
	}

	for _, addon := range ext.Addons {
		if addon.Price.IsNegative() {
			return fmt.Errorf("%w: add-on %q of device %s has negative price", ErrInvalidCatalogRecord, addon.Name, ext.Code)
		}
	}

	return nil
}

// ReconcileDevice merges the external record into the local device found by
// code, or builds a new one when local is nil. The returned device is a copy.
func ReconcileDevice(local *Device, ext ExternalDevice, now time.Time) (*Device, Outcome, error) {
	currency, err := ParseCurrency(ext.Currency)
	if err != nil {
		return nil, "", fmt.Errorf("device %s: %w", ext.Code, err)
	}

	externalID := ext.ID
	incoming := DeviceAttributes{
		ExternalID:  externalID,
		Name:        ext.Name,
		Description: ext.Description,
		BasePrice:   ext.BasePrice,
		Currency:    currency,
	}

	if local == nil {
		return &Device{
			ID:          NewID(),
			ExternalID:  &externalID,
			Code:        ext.Code,
			Name:        incoming.Name,
			Description: incoming.Description,
			BasePrice:   incoming.BasePrice,
			Currency:    incoming.Currency,
			CreatedAt:   now,
			UpdatedAt:   now,
		}, OutcomeCreated, nil
	}

	merged := *local
	if merged.ExternalID != nil && merged.Attributes().Equal(incoming) {
		return &merged, OutcomeUnchanged, nil
	}

	merged.ExternalID = &externalID
	merged.Name = incoming.Name
	merged.Description = incoming.Description
	merged.BasePrice = incoming.BasePrice
	merged.Currency = incoming.Currency
	merged.UpdatedAt = now

	return &merged, OutcomeUpdated, nil
}

func ReconcileFeature(local *Feature, deviceID ID, ext ExternalFeature) (*Feature, Outcome) {
	if local == nil {
		return &Feature{
			ID:          NewID(),
			DeviceID:    deviceID,
			ExternalID:  ext.ID,
			Name:        ext.Name,
			Description: ext.Description,
		}, OutcomeCreated
	}

	merged := *local
	incoming := FeatureAttributes{ExternalID: ext.ID, Description: ext.Description}

	if (FeatureAttributes{ExternalID: merged.ExternalID, Description: merged.Description}) == incoming {
		return &merged, OutcomeUnchanged
	}

	merged.ExternalID = incoming.ExternalID
	merged.Description = incoming.Description

	return &merged, OutcomeUpdated
}

func ReconcileCustomization(local *Customization, deviceID ID, ext ExternalCustomization) (*Customization, Outcome) {
	if local == nil {
		return &Customization{
			ID:          NewID(),
			DeviceID:    deviceID,
			ExternalID:  ext.ID,
			Name:        ext.Name,
			Description: ext.Description,
		}, OutcomeCreated
	}

	merged := *local
	merged.Options = nil
	incoming := CustomizationAttributes{ExternalID: ext.ID, Description: ext.Description}

	if (CustomizationAttributes{ExternalID: merged.ExternalID, Description: merged.Description}) == incoming {
		return &merged, OutcomeUnchanged
	}

	merged.ExternalID = incoming.ExternalID
	merged.Description = incoming.Description

	return &merged, OutcomeUpdated
}

func ReconcileOption(local *Option, customizationID ID, ext ExternalOption) (*Option, Outcome) {
	if local == nil {
		return &Option{
			ID:              NewID(),
			CustomizationID: customizationID,
			ExternalID:      ext.ID,
			Code:            ext.Code,
			Name:            ext.Name,
			Description:     ext.Description,
			AdditionalPrice: ext.AdditionalPrice,
		}, OutcomeCreated
	}

	merged := *local
	incoming := OptionAttributes{
		ExternalID:      ext.ID,
		Name:            ext.Name,
		Description:     ext.Description,
		AdditionalPrice: ext.AdditionalPrice,
	}

	current := OptionAttributes{
		ExternalID:      merged.ExternalID,
		Name:            merged.Name,
		Description:     merged.Description,
		AdditionalPrice: merged.AdditionalPrice,
	}
	if current.Equal(incoming) {
		return &merged, OutcomeUnchanged
	}

	merged.ExternalID = incoming.ExternalID
	merged.Name = incoming.Name
	merged.Description = incoming.Description
	merged.AdditionalPrice = incoming.AdditionalPrice

	return &merged, OutcomeUpdated
}

func ReconcileAddon(local *Addon, deviceID ID, ext ExternalAddon) (*Addon, Outcome) {
	if local == nil {
		return &Addon{
			ID:             NewID(),
			DeviceID:       deviceID,
			ExternalID:     ext.ID,
			Name:           ext.Name,
			Description:    ext.Description,
			Price:          ext.Price,
			FreeAbovePrice: ext.FreeAbovePrice,
		}, OutcomeCreated
	}

	merged := *local
	incoming := AddonAttributes{
		ExternalID:     ext.ID,
		Description:    ext.Description,
		Price:          ext.Price,
		FreeAbovePrice: ext.FreeAbovePrice,
	}

	current := AddonAttributes{
		ExternalID:     merged.ExternalID,
		Description:    merged.Description,
		Price:          merged.Price,
		FreeAbovePrice: merged.FreeAbovePrice,
	}
	if current.Equal(incoming) {
		return &merged, OutcomeUnchanged
	}

	merged.ExternalID = incoming.ExternalID
	merged.Description = incoming.Description
	merged.Price = incoming.Price
	merged.FreeAbovePrice = incoming.FreeAbovePrice

	return &merged, OutcomeUpdated
}

type (
	// EntityCounts tallies reconciliation outcomes for one entity kind.
	EntityCounts struct {
		Created   int `json:"created"`
		Updated   int `json:"updated"`
		Unchanged int `json:"unchanged"`
	}

	SyncReport struct {
		RunID          string       `json:"runId"`
		StartedAt      time.Time    `json:"startedAt"`
		FinishedAt     time.Time    `json:"finishedAt"`
		Devices        EntityCounts `json:"devices"`
		Features       EntityCounts `json:"features"`
		Customizations EntityCounts `json:"customizations"`
		Options        EntityCounts `json:"options"`
		Addons         EntityCounts `json:"addons"`
	}

	// SyncedDevice is one processed device. ChildChanges counts the nested
	// rows created or updated under it.
	SyncedDevice struct {
		Device       *Device
		Outcome      Outcome
		ChildChanges int
	}

	SyncResult struct {
		Devices []SyncedDevice
		Report  SyncReport
	}
)

func (c *EntityCounts) Record(o Outcome) {
	switch o {
	case OutcomeCreated:
		c.Created++
	case OutcomeUpdated:
		c.Updated++
	case OutcomeUnchanged:
		c.Unchanged++
	}
}

func (c EntityCounts) Total() int {
	return c.Created + c.Updated + c.Unchanged
}

func (c EntityCounts) Changed() int {
	return c.Created + c.Updated
}

// Changed reports whether the run wrote anything.
func (r SyncReport) Changed() bool {
	return r.Devices.Changed()+r.Features.Changed()+r.Customizations.Changed()+
		r.Options.Changed()+r.Addons.Changed() > 0
}

// Touched reports whether the device or any of its nested rows was written.
func (s SyncedDevice) Touched() bool {
	return s.Outcome.Changed() || s.ChildChanges > 0
}

// TouchedDevices returns the devices created or updated by the run, in
// catalog order.
func (r *SyncResult) TouchedDevices() []*Device {
	devices := make([]*Device, 0, len(r.Devices))

	for _, synced := range r.Devices {
		if synced.Touched() {
			devices = append(devices, synced.Device)
		}
	}

	return devices
}
