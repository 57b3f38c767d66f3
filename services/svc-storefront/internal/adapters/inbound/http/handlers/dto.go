package handlers

import (
	"time"

	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
)

type (
	registerSaleRequest struct {
		DeviceID       string             `json:"deviceId" validate:"required,uuid"`
		SoldAt         *time.Time         `json:"soldAt,omitempty"`
		Customizations []selectionRequest `json:"customizations" validate:"omitempty,dive"`
		AddonIDs       []string           `json:"addonIds" validate:"omitempty,dive,uuid"`
	}

	selectionRequest struct {
		CustomizationID string `json:"customizationId" validate:"required,uuid"`
		OptionID        string `json:"optionId" validate:"required,uuid"`
	}

	saleResponse struct {
		Data saleData `json:"data"`
	}

	saleData struct {
		ID             string            `json:"id"`
		DeviceID       string            `json:"deviceId"`
		SoldAt         time.Time         `json:"soldAt"`
		FinalPrice     string            `json:"finalPrice"`
		Customizations []saleLineData    `json:"customizations"`
		Addons         []saleAddonData   `json:"addons"`
		CreatedAt      time.Time         `json:"createdAt"`
		Links          map[string]string `json:"links,omitempty"`
	}

	saleLineData struct {
		CustomizationID string `json:"customizationId"`
		OptionID        string `json:"optionId,omitempty"`
	}

	saleAddonData struct {
		AddonID      string `json:"addonId"`
		ChargedPrice string `json:"chargedPrice"`
		Free         bool   `json:"free"`
	}

	syncResponse struct {
		Data syncData `json:"data"`
	}

	syncData struct {
		Report         model.SyncReport `json:"report"`
		Changed        bool             `json:"changed"`
		TouchedDevices []touchedDevice  `json:"touchedDevices"`
	}

	touchedDevice struct {
		ID           string `json:"id"`
		Code         string `json:"code"`
		Outcome      string `json:"outcome"`
		ChildChanges int    `json:"childChanges"`
	}

	healthResponse struct {
		Status    string                     `json:"status"`
		Timestamp time.Time                  `json:"timestamp"`
		Version   string                     `json:"version"`
		Checks    map[string]dependencyCheck `json:"checks,omitempty"`
	}

	dependencyCheck struct {
		Status      string    `json:"status"`
		LatencyMs   uint64    `json:"latencyMs"`
		Message     string    `json:"message,omitempty"`
		LastChecked time.Time `json:"lastChecked"`
	}
)

func (req registerSaleRequest) toModel() (model.SaleRequest, error) {
	deviceID, err := model.ParseID(req.DeviceID)
	if err != nil {
		return model.SaleRequest{}, err
	}

	sale := model.SaleRequest{
		DeviceID:   deviceID,
		SoldAt:     req.SoldAt,
		Selections: make([]model.Selection, 0, len(req.Customizations)),
		AddonIDs:   make([]model.ID, 0, len(req.AddonIDs)),
	}

	for _, selection := range req.Customizations {
		customizationID, err := model.ParseID(selection.CustomizationID)
		if err != nil {
			return model.SaleRequest{}, err
		}

		optionID, err := model.ParseID(selection.OptionID)
		if err != nil {
			return model.SaleRequest{}, err
		}

		sale.Selections = append(sale.Selections, model.Selection{
			CustomizationID: customizationID,
			OptionID:        optionID,
		})
	}

	for _, raw := range req.AddonIDs {
		addonID, err := model.ParseID(raw)
		if err != nil {
			return model.SaleRequest{}, err
		}

		sale.AddonIDs = append(sale.AddonIDs, addonID)
	}

	return sale, nil
}

func toSaleData(sale *model.Sale) saleData {
	data := saleData{
		ID:             sale.ID.String(),
		DeviceID:       sale.DeviceID.String(),
		SoldAt:         sale.SoldAt,
		FinalPrice:     sale.FinalPrice.StringFixed(2),
		Customizations: make([]saleLineData, 0, len(sale.Lines)),
		Addons:         make([]saleAddonData, 0, len(sale.Addons)),
		CreatedAt:      sale.CreatedAt,
		Links:          map[string]string{"self": "/v1/sales/" + sale.ID.String()},
	}

	for _, line := range sale.Lines {
		entry := saleLineData{CustomizationID: line.CustomizationID.String()}
		if !line.OptionID.IsZero() {
			entry.OptionID = line.OptionID.String()
		}

		data.Customizations = append(data.Customizations, entry)
	}

	for _, addon := range sale.Addons {
		data.Addons = append(data.Addons, saleAddonData{
			AddonID:      addon.AddonID.String(),
			ChargedPrice: addon.ChargedPrice.StringFixed(2),
			Free:         addon.Free,
		})
	}

	return data
}

func toSyncData(result *model.SyncResult) syncData {
	data := syncData{
		Report:         result.Report,
		Changed:        result.Report.Changed(),
		TouchedDevices: make([]touchedDevice, 0),
	}

	for _, synced := range result.Devices {
		if !synced.Touched() {
			continue
		}

		data.TouchedDevices = append(data.TouchedDevices, touchedDevice{
			ID:           synced.Device.ID.String(),
			Code:         synced.Device.Code,
			Outcome:      string(synced.Outcome),
			ChildChanges: synced.ChildChanges,
		})
	}

	return data
}

func toHealthResponse(status model.HealthStatus, timestamp time.Time, version string, checks map[string]model.DependencyCheck) healthResponse {
	response := healthResponse{
		Status:    string(status),
		Timestamp: timestamp,
		Version:   version,
	}

	if len(checks) > 0 {
		response.Checks = make(map[string]dependencyCheck, len(checks))

		for name, check := range checks {
			response.Checks[name] = dependencyCheck{
				Status:      string(check.Status),
				LatencyMs:   check.LatencyMs,
				Message:     check.Message,
				LastChecked: check.LastChecked,
			}
		}
	}

	return response
}
