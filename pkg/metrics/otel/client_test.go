package otel_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/architeacher/storefront/pkg/metrics"
	metricsotel "github.com/architeacher/storefront/pkg/metrics/otel"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestMetricsClient_Inc(t *testing.T) {
	t.Parallel()

	client := metricsotel.NewMetricsClient(
		noop.NewMeterProvider().Meter("test"),
		metricsotel.WithDescriptors(metrics.Descriptors{
			"sales.registered": {Description: "registered sales", Unit: "1"},
		}),
	)

	require.NotPanics(t, func() {
		ctx := context.Background()

		client.Inc(ctx, "sales.registered", 1)
		client.Inc(ctx, "sales.registered", int64(2))
		client.Inc(ctx, "commands.registersale.duration", 0.25)
		client.Inc(ctx, "catalog.sync.duration", 3*time.Second)
		client.Inc(ctx, "ignored", "not a number")
	})
}

func TestMetricsClient_Handler(t *testing.T) {
	t.Parallel()

	custom := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	cases := []struct {
		name     string
		opts     []metricsotel.Option
		expected int
	}{
		{name: "defaults to not found", expected: http.StatusNotFound},
		{name: "uses configured handler", opts: []metricsotel.Option{metricsotel.WithHandler(custom)}, expected: http.StatusTeapot},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client := metricsotel.NewMetricsClient(noop.NewMeterProvider().Meter("test"), tc.opts...)

			rec := httptest.NewRecorder()
			client.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			require.Equal(t, tc.expected, rec.Code)
			require.NoError(t, client.Shutdown(context.Background()))
		})
	}
}

func TestDescriptors_For(t *testing.T) {
	t.Parallel()

	descriptors := metrics.Descriptors{"known": {Description: "known metric", Unit: "By"}}

	require.Equal(t, "By", descriptors.For("known").Unit)
	require.Equal(t, "s", descriptors.For("queries.getsale.duration").Unit)
	require.Equal(t, "1", descriptors.For("queries.getsale.success").Unit)
}
