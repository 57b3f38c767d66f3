package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/services/svc-storefront/internal/config"
	"github.com/architeacher/storefront/services/svc-storefront/internal/domain/model"
	"github.com/architeacher/storefront/services/svc-storefront/internal/ports"
	"github.com/segmentio/kafka-go"
)

type (
	// MessageWriter is the part of *kafka.Writer the publisher needs.
	MessageWriter interface {
		WriteMessages(ctx context.Context, msgs ...kafka.Message) error
		Close() error
	}

	KafkaPublisher struct {
		writer         MessageWriter
		producer       string
		saleTopic      string
		catalogTopic   string
		publishTimeout time.Duration
		logger         logger.Logger
		now            func() time.Time
	}
)

var _ ports.EventPublisher = (*KafkaPublisher)(nil)

// NewKafkaWriter builds a writer without a default topic; every message
// names its own.
func NewKafkaWriter(cfg config.Kafka) *kafka.Writer {
	acks := kafka.RequireOne
	if cfg.RequireAllAcks {
		acks = kafka.RequireAll
	}

	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           acks,
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: cfg.AllowAutoTopic,
	}
}

func NewKafkaPublisher(writer MessageWriter, cfg config.Kafka, log logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer:         writer,
		producer:       cfg.ClientID,
		saleTopic:      cfg.SaleTopic,
		catalogTopic:   cfg.CatalogTopic,
		publishTimeout: cfg.PublishTimeout,
		logger:         log.Component("events"),
		now:            time.Now,
	}
}

func (p *KafkaPublisher) PublishSaleRegistered(ctx context.Context, sale *model.Sale) error {
	return p.publish(ctx, p.saleTopic, EventTypeSaleRegistered, sale.ID.String(), newSaleRegisteredPayload(sale))
}

func (p *KafkaPublisher) PublishCatalogSynchronized(ctx context.Context, report model.SyncReport) error {
	return p.publish(ctx, p.catalogTopic, EventTypeCatalogSynchronized, report.RunID, report)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func (p *KafkaPublisher) publish(ctx context.Context, topic, eventType, key string, payload any) error {
	envelope, err := newEnvelope(ctx, p.producer, eventType, payload, p.now())
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", eventType, err)
	}

	value, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encoding %s envelope: %w", eventType, err)
	}

	if p.publishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.publishTimeout)
		defer cancel()
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  envelope.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "event_id", Value: []byte(envelope.EventID)},
		},
	})
	if err != nil {
		return fmt.Errorf("publishing %s: %w", eventType, err)
	}

	log := p.logger.WithContext(ctx)
	log.Debug().
		Str("topic", topic).
		Str("event_type", eventType).
		Str("event_id", envelope.EventID).
		Msg("event published")

	return nil
}
