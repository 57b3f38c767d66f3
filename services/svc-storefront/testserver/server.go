// Package testserver runs the storefront HTTP API against a PostgreSQL
// container and a stub catalog API for integration testing.
package testserver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/architeacher/storefront/pkg/decorator"
	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/pkg/metrics/noop"
	inboundhttp "github.com/architeacher/storefront/services/svc-storefront/internal/adapters/inbound/http"
	"github.com/architeacher/storefront/services/svc-storefront/internal/adapters/outbound/events"
	"github.com/architeacher/storefront/services/svc-storefront/internal/adapters/outbound/externalapi"
	"github.com/architeacher/storefront/services/svc-storefront/internal/adapters/repos"
	"github.com/architeacher/storefront/services/svc-storefront/internal/config"
	infraPostgres "github.com/architeacher/storefront/services/svc-storefront/internal/infrastructure/postgres"
	"github.com/architeacher/storefront/services/svc-storefront/internal/ports"
	"github.com/architeacher/storefront/services/svc-storefront/internal/services"
	"github.com/architeacher/storefront/services/svc-storefront/internal/usecases"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	otelNoop "go.opentelemetry.io/otel/trace/noop"
)

const (
	postgresImage    = "postgres:18-alpine"
	postgresDatabase = "storefront_test"
	postgresUsername = "test"
	postgresPassword = "test"
)

// TestServer serves the public API over a real listener.
type TestServer struct {
	HTTPServer *httptest.Server
	CatalogAPI *CatalogAPI
	DBPool     *pgxpool.Pool
	Container  *postgres.PostgresContainer

	Synchronizer *services.CatalogSynchronizer
	Registrar    *services.SaleRegistrar
	Notifier     *services.SaleNotifier

	containerCtx  context.Context
	containerStop context.CancelFunc
}

// CatalogAPI stands in for the external catalog: it serves a configurable
// GET /dispositivos payload and records every POST /vender body.
type CatalogAPI struct {
	server *httptest.Server

	mu      sync.Mutex
	catalog []byte
	sales   [][]byte
}

func newCatalogAPI() *CatalogAPI {
	api := &CatalogAPI{catalog: []byte("[]")}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /dispositivos", func(w http.ResponseWriter, _ *http.Request) {
		api.mu.Lock()
		defer api.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(api.catalog)
	})
	mux.HandleFunc("POST /vender", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)

			return
		}

		api.mu.Lock()
		api.sales = append(api.sales, body)
		api.mu.Unlock()

		w.WriteHeader(http.StatusOK)
	})

	api.server = httptest.NewServer(mux)

	return api
}

// SetCatalog replaces the payload served on GET /dispositivos.
func (a *CatalogAPI) SetCatalog(payload string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.catalog = []byte(payload)
}

// Sales returns the bodies received on POST /vender so far.
func (a *CatalogAPI) Sales() [][]byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([][]byte(nil), a.sales...)
}

func (a *CatalogAPI) URL() string {
	return a.server.URL
}

// New starts PostgreSQL, applies migrations and wires the service against it.
func New(ctx context.Context) (*TestServer, error) {
	containerCtx, containerStop := context.WithTimeout(ctx, 5*time.Minute)

	container, err := postgres.Run(containerCtx,
		postgresImage,
		postgres.WithDatabase(postgresDatabase),
		postgres.WithUsername(postgresUsername),
		postgres.WithPassword(postgresPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		containerStop()

		return nil, fmt.Errorf("starting postgres container: %w", err)
	}

	ts := &TestServer{
		Container:     container,
		containerCtx:  containerCtx,
		containerStop: containerStop,
	}

	if err := ts.start(containerCtx); err != nil {
		ts.Close()

		return nil, err
	}

	return ts, nil
}

func (s *TestServer) start(ctx context.Context) error {
	connStr, err := s.Container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return fmt.Errorf("getting connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return fmt.Errorf("creating database pool: %w", err)
	}

	s.DBPool = pool

	log := logger.NewTestLogger()

	if err := infraPostgres.Migrate(ctx, pool, log); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.CatalogAPI = newCatalogAPI()

	cfg := testConfig(s.CatalogAPI.URL())
	metricsClient := noop.NewMetricsClient()
	tracerProvider := otelNoop.NewTracerProvider()

	client, err := externalapi.NewClient(cfg.CatalogAPI, log, tracerProvider)
	if err != nil {
		return fmt.Errorf("creating catalog api client: %w", err)
	}

	scanner := repos.NewPgxScanner()
	catalogRepo := repos.NewCatalogRepository(pool, scanner, log)
	salesRepo := repos.NewSalesRepository(pool, scanner, log)
	publisher := events.NewNoopPublisher()

	s.Synchronizer = services.NewCatalogSynchronizer(
		externalapi.NewCatalogSource(client, cfg.CatalogAPI.FetchTimeout),
		catalogRepo,
		publisher,
		log,
	)
	s.Notifier = services.NewSaleNotifier(
		catalogRepo,
		externalapi.NewSalesReporter(client, cfg.CatalogAPI.NotifyTimeout),
		cfg.CatalogAPI.NotifyTimeout,
		log,
	)
	s.Registrar = services.NewSaleRegistrar(catalogRepo, salesRepo, s.Notifier, publisher, log)

	app := usecases.NewApplication(usecases.Dependencies{
		Version:         "test",
		Registrar:       s.Registrar,
		Synchronizer:    s.Synchronizer,
		Sales:           salesRepo,
		SaleCacheConfig: decorator.CacheConfig{},
		HealthCheckers:  []ports.HealthChecker{catalogRepo},
	}, log, tracerProvider, metricsClient)

	router, err := inboundhttp.NewRouter(inboundhttp.RouterConfig{
		App:            app,
		Logger:         log,
		MetricsClient:  metricsClient,
		TracerProvider: tracerProvider,
		Config:         cfg,
	})
	if err != nil {
		return fmt.Errorf("creating router: %w", err)
	}

	s.HTTPServer = httptest.NewServer(router)

	return nil
}

func testConfig(catalogURL string) *config.ServiceConfig {
	return &config.ServiceConfig{
		App:               config.App{ServiceName: "svc-storefront", ServiceVersion: "test", APIVersion: "v1"},
		HTTPServer:        config.HTTPServer{RequestTimeout: 30 * time.Second},
		RequestValidation: config.RequestValidation{Enabled: true},
		CatalogAPI: config.CatalogAPI{
			BaseURL:       catalogURL,
			FetchTimeout:  10 * time.Second,
			NotifyTimeout: 5 * time.Second,
			Backoff: config.Backoff{
				BaseDelay:  10 * time.Millisecond,
				Multiplier: 1.5,
				MaxDelay:   50 * time.Millisecond,
			},
		},
	}
}

// URL returns the base URL of the public API.
func (s *TestServer) URL() string {
	return s.HTTPServer.URL
}

// WaitForBackground blocks until every pending sale report was delivered.
func (s *TestServer) WaitForBackground() {
	s.Registrar.Wait()
	s.Notifier.Wait()
}

// Truncate removes all catalog and sales rows.
func (s *TestServer) Truncate(ctx context.Context) error {
	_, err := s.DBPool.Exec(ctx, "TRUNCATE TABLE sale_addons, sale_lines, sales, addons, options, customizations, features, devices CASCADE")

	return err
}

// Close shuts down the server and cleans up resources.
func (s *TestServer) Close() {
	if s.HTTPServer != nil {
		s.HTTPServer.Close()
	}

	if s.Registrar != nil {
		s.WaitForBackground()
	}

	if s.CatalogAPI != nil {
		s.CatalogAPI.server.Close()
	}

	if s.DBPool != nil {
		s.DBPool.Close()
	}

	if s.Container != nil {
		_ = s.Container.Terminate(s.containerCtx)
	}

	if s.containerStop != nil {
		s.containerStop()
	}
}
