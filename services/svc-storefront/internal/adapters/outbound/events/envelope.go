// Package events publishes storefront domain events.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/architeacher/storefront/pkg/idempotency"
	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	otelTrace "go.opentelemetry.io/otel/trace"
)

const (
	EventTypeSaleRegistered      = "storefront.sale.registered"
	EventTypeCatalogSynchronized = "storefront.catalog.synchronized"

	eventVersion = 1
)

type (
	// Envelope wraps every event payload.
	Envelope struct {
		EventID        string          `json:"event_id"`
		EventType      string          `json:"event_type"`
		EventVersion   int             `json:"event_version"`
		OccurredAt     time.Time       `json:"occurred_at"`
		Producer       string          `json:"producer"`
		TraceID        string          `json:"trace_id,omitempty"`
		CorrelationID  string          `json:"correlation_id,omitempty"`
		IdempotencyKey string          `json:"idempotency_key,omitempty"`
		Payload        json.RawMessage `json:"payload"`
	}

	SaleRegisteredPayload struct {
		SaleID     string             `json:"sale_id"`
		DeviceID   string             `json:"device_id"`
		SoldAt     time.Time          `json:"sold_at"`
		FinalPrice decimal.Decimal    `json:"final_price"`
		Lines      []SaleLinePayload  `json:"lines"`
		Addons     []SaleAddonPayload `json:"addons"`
	}

	SaleLinePayload struct {
		CustomizationID string `json:"customization_id"`
		OptionID        string `json:"option_id,omitempty"`
	}

	SaleAddonPayload struct {
		AddonID      string          `json:"addon_id"`
		ChargedPrice decimal.Decimal `json:"charged_price"`
		Free         bool            `json:"free"`
	}
)

func newEnvelope(ctx context.Context, producer, eventType string, payload any, now time.Time) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}

	envelope := Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: eventVersion,
		OccurredAt:   now.UTC(),
		Producer:     producer,
		Payload:      data,
	}

	if spanContext := otelTrace.SpanContextFromContext(ctx); spanContext.HasTraceID() {
		envelope.TraceID = spanContext.TraceID().String()
	}

	if correlationID, ok := ctx.Value(logger.ContextKeyCorrelationID).(string); ok {
		envelope.CorrelationID = correlationID
	} else if requestID, ok := ctx.Value(logger.ContextKeyRequestID).(string); ok {
		envelope.CorrelationID = requestID
	}

	if key, ok := idempotency.FromContext(ctx); ok {
		envelope.IdempotencyKey = key.String()
	}

	return envelope, nil
}

func newSaleRegisteredPayload(sale *model.Sale) SaleRegisteredPayload {
	payload := SaleRegisteredPayload{
		SaleID:     sale.ID.String(),
		DeviceID:   sale.DeviceID.String(),
		SoldAt:     sale.SoldAt,
		FinalPrice: sale.FinalPrice,
		Lines:      make([]SaleLinePayload, 0, len(sale.Lines)),
		Addons:     make([]SaleAddonPayload, 0, len(sale.Addons)),
	}

	for _, line := range sale.Lines {
		entry := SaleLinePayload{CustomizationID: line.CustomizationID.String()}
		if !line.OptionID.IsZero() {
			entry.OptionID = line.OptionID.String()
		}

		payload.Lines = append(payload.Lines, entry)
	}

	for _, addon := range sale.Addons {
		payload.Addons = append(payload.Addons, SaleAddonPayload{
			AddonID:      addon.AddonID.String(),
			ChargedPrice: addon.ChargedPrice,
			Free:         addon.Free,
		})
	}

	return payload
}
