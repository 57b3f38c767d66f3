package http

import (
	"net/http"

	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/services/svc-storefront/internal/adapters/inbound/http/handlers"
	"github.com/architeacher/storefront/services/svc-storefront/internal/usecases"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type AdminRouterConfig struct {
	App            *usecases.Application
	MetricsHandler http.Handler
	Logger         logger.Logger
}

// NewAdminRouter serves internal endpoints on the admin port.
func NewAdminRouter(cfg AdminRouterConfig) http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)

	handler := handlers.NewHandler(cfg.App, cfg.Logger)

	router.Get("/liveness", handler.Liveness)
	router.Get("/readiness", handler.Readiness)
	router.Handle("/metrics", cfg.MetricsHandler)

	return router
}
