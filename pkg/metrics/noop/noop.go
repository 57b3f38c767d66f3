// Package noop provides a metrics client that discards every measurement.
// It backs the service when metric collection is switched off and keeps
// tests free of an OpenTelemetry meter.
package noop

import (
	"context"
	"net/http"

	"github.com/architeacher/storefront/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
)

const disabledBody = `{"code":"METRICS_DISABLED","message":"metric collection is disabled, set METRICS_ENABLED=true to expose it"}`

var _ metrics.Client = MetricsClient{}

type MetricsClient struct{}

func NewMetricsClient() MetricsClient {
	return MetricsClient{}
}

func (MetricsClient) Inc(context.Context, string, any, ...attribute.KeyValue) {}

// Handler answers the admin metrics endpoint with 404 and names the switch
// that turns collection on.
func (MetricsClient) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(disabledBody))
	})
}

func (MetricsClient) Shutdown(context.Context) error {
	return nil
}
