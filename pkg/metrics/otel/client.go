// Package otel provides a metrics client recording onto an OpenTelemetry meter.
package otel

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/architeacher/storefront/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type (
	MetricsClient struct {
		meter       metric.Meter
		descriptors metrics.Descriptors
		handler     http.Handler

		mu         sync.Mutex
		counters   map[string]metric.Int64Counter
		histograms map[string]metric.Float64Histogram
	}

	Option func(*MetricsClient)
)

// WithDescriptors sets the metadata used when instruments are first registered.
func WithDescriptors(descriptors metrics.Descriptors) Option {
	return func(c *MetricsClient) {
		c.descriptors = descriptors
	}
}

// WithHandler sets the handler served on the admin metrics endpoint.
func WithHandler(handler http.Handler) Option {
	return func(c *MetricsClient) {
		c.handler = handler
	}
}

func NewMetricsClient(meter metric.Meter, opts ...Option) *MetricsClient {
	client := &MetricsClient{
		meter:       meter,
		descriptors: metrics.Descriptors{},
		handler:     http.NotFoundHandler(),
		counters:    make(map[string]metric.Int64Counter),
		histograms:  make(map[string]metric.Float64Histogram),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Inc adds integer values to a counter and records float64 and duration values on a histogram.
// Values of other types are ignored.
func (c *MetricsClient) Inc(ctx context.Context, key string, value any, attributes ...attribute.KeyValue) {
	switch v := value.(type) {
	case int:
		c.add(ctx, key, int64(v), attributes)
	case int64:
		c.add(ctx, key, v, attributes)
	case uint:
		c.add(ctx, key, int64(v), attributes)
	case float64:
		c.record(ctx, key, v, attributes)
	case time.Duration:
		c.record(ctx, key, v.Seconds(), attributes)
	}
}

func (c *MetricsClient) Handler() http.Handler {
	return c.handler
}

func (c *MetricsClient) Shutdown(_ context.Context) error {
	return nil
}

func (c *MetricsClient) add(ctx context.Context, key string, value int64, attributes []attribute.KeyValue) {
	c.mu.Lock()
	counter, ok := c.counters[key]
	if !ok {
		var err error

		counter, err = metrics.RegisterInt64Counter(c.meter, c.descriptors.For(key), key)
		if err != nil {
			c.mu.Unlock()

			return
		}

		c.counters[key] = counter
	}
	c.mu.Unlock()

	counter.Add(ctx, value, metric.WithAttributes(attributes...))
}

func (c *MetricsClient) record(ctx context.Context, key string, value float64, attributes []attribute.KeyValue) {
	c.mu.Lock()
	histogram, ok := c.histograms[key]
	if !ok {
		var err error

		histogram, err = metrics.RegisterFloat64Histogram(c.meter, c.descriptors.For(key), key)
		if err != nil {
			c.mu.Unlock()

			return
		}

		c.histograms[key] = histogram
	}
	c.mu.Unlock()

	histogram.Record(ctx, value, metric.WithAttributes(attributes...))
}
