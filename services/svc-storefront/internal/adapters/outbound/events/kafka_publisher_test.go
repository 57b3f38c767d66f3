package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/architeacher/storefront/pkg/idempotency"
	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/services/svc-storefront/internal/adapters/outbound/events"
	"github.com/architeacher/storefront/services/svc-storefront/internal/config"
	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return w.err
	}

	w.messages = append(w.messages, msgs...)

	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true

	return nil
}

func kafkaConfig() config.Kafka {
	return config.Kafka{
		ClientID:       "svc-storefront",
		SaleTopic:      "storefront.sale.registered",
		CatalogTopic:   "storefront.catalog.synchronized",
		PublishTimeout: time.Second,
	}
}

func TestKafkaPublisher_PublishSaleRegistered(t *testing.T) {
	t.Parallel()

	writer := &recordingWriter{}
	publisher := events.NewKafkaPublisher(writer, kafkaConfig(), logger.NewTestLogger())

	sale := &model.Sale{
		ID:         model.NewID(),
		DeviceID:   model.NewID(),
		SoldAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		FinalPrice: decimal.RequireFromString("115"),
		Lines:      []model.SaleLine{{CustomizationID: model.NewID(), OptionID: model.NewID()}},
		Addons:     []model.SaleAddon{{AddonID: model.NewID(), ChargedPrice: decimal.Zero, Free: true}},
	}

	ctx := context.WithValue(t.Context(), logger.ContextKeyCorrelationID, "corr-1")
	ctx = idempotency.WithKey(ctx, "order:2026-03-01.0001")
	require.NoError(t, publisher.PublishSaleRegistered(ctx, sale))

	require.Len(t, writer.messages, 1)
	message := writer.messages[0]
	require.Equal(t, "storefront.sale.registered", message.Topic)
	require.Equal(t, sale.ID.String(), string(message.Key))

	var envelope events.Envelope
	require.NoError(t, json.Unmarshal(message.Value, &envelope))
	require.NotEmpty(t, envelope.EventID)
	require.Equal(t, events.EventTypeSaleRegistered, envelope.EventType)
	require.Equal(t, 1, envelope.EventVersion)
	require.Equal(t, "svc-storefront", envelope.Producer)
	require.Equal(t, "corr-1", envelope.CorrelationID)
	require.Equal(t, "order:2026-03-01.0001", envelope.IdempotencyKey)

	var payload events.SaleRegisteredPayload
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	require.Equal(t, sale.ID.String(), payload.SaleID)
	require.True(t, sale.FinalPrice.Equal(payload.FinalPrice))
	require.Len(t, payload.Lines, 1)
	require.Equal(t, sale.Lines[0].OptionID.String(), payload.Lines[0].OptionID)
	require.True(t, payload.Addons[0].Free)
}

func TestKafkaPublisher_PublishCatalogSynchronized(t *testing.T) {
	t.Parallel()

	writer := &recordingWriter{}
	publisher := events.NewKafkaPublisher(writer, kafkaConfig(), logger.NewTestLogger())

	report := model.SyncReport{RunID: "run-1"}
	report.Devices.Record(model.OutcomeCreated)

	require.NoError(t, publisher.PublishCatalogSynchronized(t.Context(), report))

	message := writer.messages[0]
	require.Equal(t, "storefront.catalog.synchronized", message.Topic)
	require.Equal(t, "run-1", string(message.Key))

	var envelope events.Envelope
	require.NoError(t, json.Unmarshal(message.Value, &envelope))

	require.Empty(t, envelope.IdempotencyKey)

	var payload model.SyncReport
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	require.Equal(t, 1, payload.Devices.Created)
}

func TestKafkaPublisher_WriteFailure(t *testing.T) {
	t.Parallel()

	writer := &recordingWriter{err: errors.New("leader not available")}
	publisher := events.NewKafkaPublisher(writer, kafkaConfig(), logger.NewTestLogger())

	err := publisher.PublishCatalogSynchronized(t.Context(), model.SyncReport{RunID: "run-2"})
	require.ErrorContains(t, err, "leader not available")

	require.NoError(t, publisher.Close())
	require.True(t, writer.closed)
}

func TestNewKafkaWriter(t *testing.T) {
	t.Parallel()

	cfg := kafkaConfig()
	cfg.Brokers = []string{"kafka-1:9092", "kafka-2:9092"}
	cfg.RequireAllAcks = true

	writer := events.NewKafkaWriter(cfg)
	require.Equal(t, kafka.RequireAll, writer.RequiredAcks)
	require.Empty(t, writer.Topic)
	require.NotNil(t, writer.Addr)
}
