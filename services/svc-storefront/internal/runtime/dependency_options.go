package runtime

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/architeacher/storefront/pkg/decorator"
	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/pkg/metrics"
	"github.com/architeacher/storefront/pkg/metrics/noop"
	otelMetrics "github.com/architeacher/storefront/pkg/metrics/otel"
	inboundhttp "github.com/architeacher/storefront/services/svc-storefront/internal/adapters/inbound/http"
	"github.com/architeacher/storefront/services/svc-storefront/internal/adapters/outbound/events"
	"github.com/architeacher/storefront/services/svc-storefront/internal/adapters/outbound/externalapi"
	"github.com/architeacher/storefront/services/svc-storefront/internal/adapters/repos"
	"github.com/architeacher/storefront/services/svc-storefront/internal/config"
	"github.com/architeacher/storefront/services/svc-storefront/internal/infrastructure"
	infraPostgres "github.com/architeacher/storefront/services/svc-storefront/internal/infrastructure/postgres"
	"github.com/architeacher/storefront/services/svc-storefront/internal/ports"
	"github.com/architeacher/storefront/services/svc-storefront/internal/services"
	"github.com/architeacher/storefront/services/svc-storefront/internal/usecases"
	"github.com/hashicorp/vault/api"
)

const meterName = "github.com/architeacher/storefront/services/svc-storefront"

var metricDescriptors = metrics.Descriptors{
	"http_requests_total":                   {Description: "HTTP requests served", Unit: "1"},
	"http_request_duration_seconds":         {Description: "HTTP request latency", Unit: "s"},
	"commands.registersalecommand.success":  {Description: "Sales registered", Unit: "1"},
	"commands.registersalecommand.failure":  {Description: "Sales rejected or failed", Unit: "1"},
	"commands.registersalecommand.duration": {Description: "Sale registration latency", Unit: "s"},
	"commands.synccatalogcommand.success":   {Description: "Catalog sync runs completed", Unit: "1"},
	"commands.synccatalogcommand.failure":   {Description: "Catalog sync runs failed", Unit: "1"},
	"commands.synccatalogcommand.duration":  {Description: "Catalog sync run latency", Unit: "s"},
	"queries.getsalequery.duration":         {Description: "Sale lookup latency", Unit: "s"},
	"queries.fetchreadinessquery.failure":   {Description: "Readiness checks that failed to run", Unit: "1"},
}

func defaultOptions(ctx context.Context) []DependencyOption {
	return []DependencyOption{
		WithConfig(),
		WithSecretsRepository(),
		WithConfigLoader(ctx),
		WithLogger(),
		WithTelemetry(ctx),
		WithMetrics(),
		WithDatabase(ctx),
		WithCache(ctx),
		WithRepositories(),
		WithCatalogAPI(),
		WithEventPublisher(),
		WithCatalogSynchronizer(),
		WithSaleRegistrar(),
		WithApplication(),
		WithHTTPServers(),
	}
}

func WithConfig() DependencyOption {
	return func(d *dependencies) error {
		cfg, err := config.Init()
		if err != nil {
			return fmt.Errorf("initializing configuration: %w", err)
		}

		d.config = cfg

		return nil
	}
}

func WithSecretsRepository() DependencyOption {
	return func(d *dependencies) error {
		if !d.config.SecretsStorage.Enabled {
			return nil
		}

		vaultConfig := api.DefaultConfig()
		vaultConfig.Address = d.config.SecretsStorage.Address
		vaultConfig.Timeout = d.config.SecretsStorage.Timeout

		if d.config.SecretsStorage.TLSSkipVerify {
			vaultConfig.HttpClient.Transport = &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			}
		}

		client, err := api.NewClient(vaultConfig)
		if err != nil {
			return fmt.Errorf("creating Vault client: %w", err)
		}

		if d.config.SecretsStorage.Namespace != "" {
			client.SetNamespace(d.config.SecretsStorage.Namespace)
		}

		d.repos.secretsRepo = repos.NewVaultRepository(client)

		return nil
	}
}

func WithConfigLoader(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		if d.repos.secretsRepo == nil {
			return nil
		}

		loader := config.NewLoader(d.config, d.repos.secretsRepo, 0)

		if _, err := loader.Load(ctx); err != nil {
			return fmt.Errorf("loading secrets from Vault: %w", err)
		}

		d.configLoader = loader

		return nil
	}
}

func WithLogger() DependencyOption {
	return func(d *dependencies) error {
		d.infra.logger = logger.New(d.config.Logging.Level, d.config.Logging.Format)

		return nil
	}
}

func WithTelemetry(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		telemetry, err := infrastructure.NewTelemetry(ctx, d.config.Telemetry, d.config.App.ServiceVersion)
		if err != nil {
			return fmt.Errorf("initializing telemetry: %w", err)
		}

		d.infra.telemetry = telemetry
		d.onShutdown("telemetry", telemetry.Shutdown)

		return nil
	}
}

func WithMetrics() DependencyOption {
	return func(d *dependencies) error {
		if !d.config.Telemetry.Metrics.Enabled {
			d.infra.metricsClient = noop.NewMetricsClient()

			return nil
		}

		d.infra.metricsClient = otelMetrics.NewMetricsClient(
			d.infra.telemetry.MeterProvider.Meter(meterName),
			otelMetrics.WithDescriptors(metricDescriptors),
			otelMetrics.WithHandler(d.infra.telemetry.MetricsHandler),
		)

		d.onShutdown("metrics", d.infra.metricsClient.Shutdown)

		return nil
	}
}

func WithDatabase(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		pool, err := infraPostgres.NewPool(ctx, d.config.Database)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}

		d.onShutdown("postgres", func(context.Context) error {
			pool.Close()

			return nil
		})

		if d.config.Database.MigrateOnStart {
			if err := infraPostgres.Migrate(ctx, pool, d.infra.logger); err != nil {
				return fmt.Errorf("migrating database: %w", err)
			}
		}

		d.infra.dbPool = pool

		return nil
	}
}

func WithCache(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		if !d.config.Cache.Enabled {
			return nil
		}

		client := infrastructure.NewKeyDBClient(d.config.Cache, d.infra.logger)

		if err := client.Ping(ctx); err != nil {
			d.infra.logger.Warn().Err(err).Msg("keydb is not reachable yet, continuing")
		}

		d.infra.cacheClient = client
		d.onShutdown("keydb", func(context.Context) error {
			return client.Close()
		})

		return nil
	}
}

func WithRepositories() DependencyOption {
	return func(d *dependencies) error {
		scanner := repos.NewPgxScanner()

		d.repos.catalogRepo = repos.NewCatalogRepository(d.infra.dbPool, scanner, d.infra.logger)
		d.repos.salesRepo = repos.NewSalesRepository(d.infra.dbPool, scanner, d.infra.logger)

		if d.infra.cacheClient == nil {
			return nil
		}

		d.repos.idempotencyRepo = repos.NewIdempotencyRepository(d.infra.cacheClient)
		d.repos.syncLock = repos.NewSyncLockRepository(d.infra.cacheClient)
		d.repos.rateLimitStore = repos.NewRateLimitStore(d.infra.cacheClient)

		if d.config.SaleCache.Enabled {
			d.repos.saleCache = repos.NewSaleCacheRepository(d.infra.cacheClient)
		}

		return nil
	}
}

func WithCatalogAPI() DependencyOption {
	return func(d *dependencies) error {
		client, err := externalapi.NewClient(d.config.CatalogAPI, d.infra.logger, d.infra.telemetry.TracerProvider)
		if err != nil {
			return fmt.Errorf("creating catalog api client: %w", err)
		}

		d.infra.catalogAPI = client

		return nil
	}
}

func WithEventPublisher() DependencyOption {
	return func(d *dependencies) error {
		if !d.config.KafkaEnabled() {
			d.services.publisher = events.NewNoopPublisher()

			return nil
		}

		publisher := events.NewKafkaPublisher(events.NewKafkaWriter(d.config.Kafka), d.config.Kafka, d.infra.logger)

		d.services.publisher = publisher
		d.onShutdown("kafka", func(context.Context) error {
			return publisher.Close()
		})

		return nil
	}
}

func WithCatalogSynchronizer() DependencyOption {
	return func(d *dependencies) error {
		var opts []services.SynchronizerOption

		if d.config.CatalogSync.LockEnabled && d.repos.syncLock != nil {
			opts = append(opts, services.WithDistributedLock(d.repos.syncLock, d.config.CatalogSync.LockTTL))
		}

		d.services.synchronizer = services.NewCatalogSynchronizer(
			externalapi.NewCatalogSource(d.infra.catalogAPI, d.config.CatalogAPI.FetchTimeout),
			d.repos.catalogRepo,
			d.services.publisher,
			d.infra.logger,
			opts...,
		)

		if d.config.CatalogSync.Enabled {
			d.services.scheduler = services.NewSyncScheduler(
				d.services.synchronizer,
				d.config.CatalogSync.Interval,
				d.config.CatalogSync.InitialDelay,
				d.infra.logger,
			)
		}

		return nil
	}
}

func WithSaleRegistrar() DependencyOption {
	return func(d *dependencies) error {
		notifier := services.NewSaleNotifier(
			d.repos.catalogRepo,
			externalapi.NewSalesReporter(d.infra.catalogAPI, d.config.CatalogAPI.NotifyTimeout),
			d.config.CatalogAPI.NotifyTimeout,
			d.infra.logger,
		)

		registrar := services.NewSaleRegistrar(
			d.repos.catalogRepo,
			d.repos.salesRepo,
			notifier,
			d.services.publisher,
			d.infra.logger,
		)

		d.services.notifier = notifier
		d.services.registrar = registrar

		d.onShutdown("sale-notifier", func(ctx context.Context) error {
			return waitFor(ctx, notifier.Wait)
		})
		d.onShutdown("sale-registrar", func(ctx context.Context) error {
			return waitFor(ctx, registrar.Wait)
		})

		return nil
	}
}

func WithApplication() DependencyOption {
	return func(d *dependencies) error {
		d.services.healthCheckers = []ports.HealthChecker{d.repos.catalogRepo}
		if d.infra.cacheClient != nil {
			d.services.healthCheckers = append(d.services.healthCheckers, d.infra.cacheClient)
		}

		deps := usecases.Dependencies{
			Version:      d.config.App.ServiceVersion,
			Registrar:    d.services.registrar,
			Synchronizer: d.services.synchronizer,
			Sales:        d.repos.salesRepo,
			SaleCacheConfig: decorator.CacheConfig{
				Enabled:      d.config.SaleCache.Enabled,
				TTL:          d.config.SaleCache.TTL,
				WriteTimeout: d.config.SaleCache.WriteTimeout,
			},
			HealthCheckers: d.services.healthCheckers,
		}

		if d.repos.saleCache != nil {
			deps.SaleCache = d.repos.saleCache
		}

		d.app = usecases.NewApplication(deps, d.infra.logger, d.infra.telemetry.TracerProvider, d.infra.metricsClient)

		return nil
	}
}

func WithHTTPServers() DependencyOption {
	return func(d *dependencies) error {
		routerCfg := inboundhttp.RouterConfig{
			App:            d.app,
			Logger:         d.infra.logger,
			MetricsClient:  d.infra.metricsClient,
			TracerProvider: d.infra.telemetry.TracerProvider,
			Config:         d.config,
		}

		if d.repos.idempotencyRepo != nil {
			routerCfg.IdempotencyCache = d.repos.idempotencyRepo
		}

		if d.repos.rateLimitStore != nil {
			routerCfg.RateLimitStore = d.repos.rateLimitStore
		}

		router, err := inboundhttp.NewRouter(routerCfg)
		if err != nil {
			return fmt.Errorf("creating router: %w", err)
		}

		httpCfg := d.config.HTTPServer
		d.infra.publicHttpServer = &http.Server{
			Addr:         net.JoinHostPort(httpCfg.Host, fmt.Sprintf("%d", httpCfg.Port)),
			Handler:      router,
			ReadTimeout:  httpCfg.ReadTimeout,
			WriteTimeout: httpCfg.WriteTimeout,
			IdleTimeout:  httpCfg.IdleTimeout,
		}
		d.onShutdown("http-server", d.infra.publicHttpServer.Shutdown)

		if !d.config.AdminHTTPServer.Enabled {
			return nil
		}

		adminCfg := d.config.AdminHTTPServer
		d.infra.adminHttpServer = &http.Server{
			Addr: net.JoinHostPort(adminCfg.Host, fmt.Sprintf("%d", adminCfg.Port)),
			Handler: inboundhttp.NewAdminRouter(inboundhttp.AdminRouterConfig{
				App:            d.app,
				MetricsHandler: d.infra.metricsClient.Handler(),
				Logger:         d.infra.logger,
			}),
			ReadTimeout:  adminCfg.ReadTimeout,
			WriteTimeout: adminCfg.WriteTimeout,
			IdleTimeout:  adminCfg.IdleTimeout,
		}
		d.onShutdown("admin-http-server", d.infra.adminHttpServer.Shutdown)

		return nil
	}
}

var errDrainTimeout = errors.New("timed out waiting for background work")

// waitFor runs wait until it returns or ctx expires.
func waitFor(ctx context.Context, wait func()) error {
	done := make(chan struct{})

	go func() {
		wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", errDrainTimeout, ctx.Err())
	}
}
