package http

import (
	"fmt"
	"net/http"

	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/pkg/metrics"
	"github.com/architeacher/storefront/services/svc-storefront/internal/adapters/inbound/http/handlers"
	"github.com/architeacher/storefront/services/svc-storefront/internal/adapters/inbound/http/middleware"
	"github.com/architeacher/storefront/services/svc-storefront/internal/adapters/inbound/http/openapi"
	"github.com/architeacher/storefront/services/svc-storefront/internal/config"
	"github.com/architeacher/storefront/services/svc-storefront/internal/ports"
	"github.com/architeacher/storefront/services/svc-storefront/internal/usecases"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/throttled/throttled/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	otelTrace "go.opentelemetry.io/otel/trace"
)

const baseURL = "/v1"

type RouterConfig struct {
	App              *usecases.Application
	Logger           logger.Logger
	MetricsClient    metrics.Client
	TracerProvider   otelTrace.TracerProvider
	Config           *config.ServiceConfig
	IdempotencyCache ports.IdempotencyCache
	RateLimitStore   throttled.GCRAStoreCtx
}

func NewRouter(cfg RouterConfig) (http.Handler, error) {
	router := chi.NewRouter()

	router.Use(middleware.RequestTracking())
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.NewHealthCheckFilter(cfg.Config.Logging.AccessLog.LogHealthChecks).Middleware)
	router.Use(otelhttp.NewMiddleware(cfg.Config.App.ServiceName,
		otelhttp.WithTracerProvider(cfg.TracerProvider),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	))
	router.Use(middleware.Recovery(cfg.Logger))
	router.Use(middleware.SecurityHeaders(cfg.Config.App.APIVersion))

	if cfg.Config.CORS.Enabled {
		router.Use(middleware.CORS(cfg.Config.CORS))
	}

	router.Use(chimiddleware.Timeout(cfg.Config.HTTPServer.RequestTimeout))
	router.Use(middleware.Metrics(cfg.MetricsClient))

	if cfg.Config.Logging.AccessLog.Enabled {
		router.Use(middleware.AccessLogger(cfg.Logger, cfg.Config.Logging.AccessLog))
	}

	if cfg.Config.ThrottledRateLimiting.Enabled && cfg.RateLimitStore != nil {
		rateLimiting, err := middleware.ThrottledRateLimiting(cfg.Config.ThrottledRateLimiting, cfg.RateLimitStore, cfg.Logger)
		if err != nil {
			return nil, err
		}

		router.Use(rateLimiting)
		cfg.Logger.Info().
			Uint("requests_per_second", cfg.Config.ThrottledRateLimiting.RequestsPerSecond).
			Uint("burst", cfg.Config.ThrottledRateLimiting.BurstSize).
			Msg("rate limiting enabled")
	}

	var validator func(http.Handler) http.Handler

	if cfg.Config.RequestValidation.Enabled {
		doc, err := openapi.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load openapi document: %w", err)
		}

		validator, err = middleware.RequestValidator(doc, cfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to build request validator: %w", err)
		}
	}

	handler := handlers.NewHandler(cfg.App, cfg.Logger)

	router.Route(baseURL, func(r chi.Router) {
		if validator != nil {
			r.Use(validator)
		}

		r.Get("/liveness", handler.Liveness)
		r.Get("/readiness", handler.Readiness)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Idempotency(cfg.IdempotencyCache, cfg.Config.Idempotency, cfg.Logger))

			r.Post("/sales", handler.RegisterSale)
			r.Post("/catalog/sync", handler.SyncCatalog)
		})

		r.Get("/sales/{saleID}", handler.GetSale)
	})

	return router, nil
}
