package config

import "time"

// Compile time variables are set by -ldflags.
var (
	ServiceVersion string
	CommitSHA      string
)

const (
	Development = 1 << iota
	Sandbox
	Staging
	Production
)

type (
	ServiceConfig struct {
		App                   App                   `json:"app"`
		SecretsStorage        SecretsStorage        `json:"secrets_storage"`
		HTTPServer            HTTPServer            `json:"http_server"`
		AdminHTTPServer       AdminHTTPServer       `json:"admin_http_server"`
		Database              Database              `json:"database"`
		Cache                 Cache                 `json:"cache"`
		CatalogAPI            CatalogAPI            `json:"catalog_api"`
		CatalogSync           CatalogSync           `json:"catalog_sync"`
		Kafka                 Kafka                 `json:"kafka"`
		ThrottledRateLimiting ThrottledRateLimiting `json:"throttled_rate_limiting"`
		Idempotency           Idempotency           `json:"idempotency"`
		RequestValidation     RequestValidation     `json:"request_validation"`
		CORS                  CORS                  `json:"cors"`
		SaleCache             SaleCache             `json:"sale_cache"`
		Logging               Logging               `json:"logging"`
		Telemetry             Telemetry             `json:"telemetry"`
	}

	App struct {
		ServiceName    string      `envconfig:"APP_SERVICE_NAME" default:"svc-storefront" json:"service_name"`
		ServiceVersion string      `envconfig:"APP_SERVICE_VERSION" default:"dev" json:"service_version"`
		CommitSHA      string      `envconfig:"APP_COMMIT_SHA" default:"" json:"commit_sha,omitempty"`
		APIVersion     string      `envconfig:"APP_API_VERSION" default:"v1" json:"api_version"`
		Env            Environment `json:"environment"`
	}

	Environment struct {
		Name string `envconfig:"APP_ENVIRONMENT" default:"development" json:"env"`
	}

	SecretsStorage struct {
		Enabled       bool          `envconfig:"VAULT_ENABLED" default:"false" json:"enabled"`
		Address       string        `envconfig:"VAULT_ADDRESS" default:"http://vault:8200" json:"address"`
		Token         string        `envconfig:"VAULT_TOKEN" default:"" json:"token,omitempty"`
		RoleID        string        `envconfig:"VAULT_ROLE_ID" default:"" json:"role_id,omitempty"`
		SecretID      string        `envconfig:"VAULT_SECRET_ID" default:"" json:"secret_id,omitempty"`
		AuthMethod    string        `envconfig:"VAULT_AUTH_METHOD" default:"token" json:"auth_method"`
		MountPath     string        `envconfig:"VAULT_MOUNT_PATH" default:"svc-storefront" json:"mount_path"`
		Namespace     string        `envconfig:"VAULT_NAMESPACE" default:"" json:"namespace,omitempty"`
		Timeout       time.Duration `envconfig:"VAULT_TIMEOUT" default:"30s" json:"timeout"`
		MaxRetries    uint          `envconfig:"VAULT_MAX_RETRIES" default:"3" json:"max_retries"`
		TLSSkipVerify bool          `envconfig:"VAULT_TLS_SKIP_VERIFY" default:"false" json:"tls_skip_verify"`
		PollInterval  time.Duration `envconfig:"VAULT_POLL_INTERVAL" default:"24h" json:"poll_interval"`
	}

	HTTPServer struct {
		Host            string        `envconfig:"HTTP_SERVER_HOST" default:"0.0.0.0" json:"host"`
		Port            uint          `envconfig:"HTTP_SERVER_PORT" default:"8080" json:"port"`
		ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s" json:"read_timeout"`
		WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"15s" json:"write_timeout"`
		IdleTimeout     time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"60s" json:"idle_timeout"`
		RequestTimeout  time.Duration `envconfig:"HTTP_REQUEST_TIMEOUT" default:"60s" json:"request_timeout"`
		ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"30s" json:"shutdown_timeout"`
	}

	AdminHTTPServer struct {
		Enabled         bool          `envconfig:"ADMIN_HTTP_SERVER_ENABLED" default:"true" json:"enabled"`
		Host            string        `envconfig:"ADMIN_HTTP_SERVER_HOST" default:"127.0.0.1" json:"host"`
		Port            uint          `envconfig:"ADMIN_HTTP_SERVER_PORT" default:"8081" json:"port"`
		ReadTimeout     time.Duration `envconfig:"ADMIN_HTTP_READ_TIMEOUT" default:"15s" json:"read_timeout"`
		WriteTimeout    time.Duration `envconfig:"ADMIN_HTTP_WRITE_TIMEOUT" default:"15s" json:"write_timeout"`
		IdleTimeout     time.Duration `envconfig:"ADMIN_HTTP_IDLE_TIMEOUT" default:"60s" json:"idle_timeout"`
		ShutdownTimeout time.Duration `envconfig:"ADMIN_HTTP_SHUTDOWN_TIMEOUT" default:"30s" json:"shutdown_timeout"`
	}

	Database struct {
		Host            string        `envconfig:"POSTGRES_HOST" default:"postgres" json:"host"`
		Port            uint          `envconfig:"POSTGRES_PORT" default:"5432" json:"port"`
		Database        string        `envconfig:"POSTGRES_DATABASE" default:"storefront" json:"database"`
		Username        string        `envconfig:"POSTGRES_USERNAME" default:"postgres" json:"username"`
		Password        string        `envconfig:"POSTGRES_PASSWORD" default:"" json:"password,omitempty"`
		SSLMode         string        `envconfig:"POSTGRES_SSL_MODE" default:"disable" json:"ssl_mode"`
		MaxConnections  int           `envconfig:"POSTGRES_MAX_CONNECTIONS" default:"25" json:"max_connections"`
		MinConnections  int           `envconfig:"POSTGRES_MIN_CONNECTIONS" default:"5" json:"min_connections"`
		ConnectTimeout  time.Duration `envconfig:"POSTGRES_CONNECT_TIMEOUT" default:"10s" json:"connect_timeout"`
		MaxConnLifetime time.Duration `envconfig:"POSTGRES_MAX_CONN_LIFETIME" default:"1h" json:"max_conn_lifetime"`
		MaxConnIdleTime time.Duration `envconfig:"POSTGRES_MAX_CONN_IDLE_TIME" default:"30m" json:"max_conn_idle_time"`
		MigrateOnStart  bool          `envconfig:"POSTGRES_MIGRATE_ON_START" default:"true" json:"migrate_on_start"`
	}

	Cache struct {
		Enabled      bool          `envconfig:"CACHE_ENABLED" default:"true" json:"enabled"`
		Address      string        `envconfig:"CACHE_ADDRESS" default:"keydb:6379" json:"address"`
		Password     string        `envconfig:"CACHE_PASSWORD" default:"" json:"password,omitempty"`
		DB           uint          `envconfig:"CACHE_DB" default:"0" json:"db"`
		PoolSize     uint          `envconfig:"CACHE_POOL_SIZE" default:"10" json:"pool_size"`
		MinIdleConns uint          `envconfig:"CACHE_MIN_IDLE_CONNS" default:"3" json:"min_idle_conns"`
		DialTimeout  time.Duration `envconfig:"CACHE_DIAL_TIMEOUT" default:"5s" json:"dial_timeout"`
		ReadTimeout  time.Duration `envconfig:"CACHE_READ_TIMEOUT" default:"3s" json:"read_timeout"`
		WriteTimeout time.Duration `envconfig:"CACHE_WRITE_TIMEOUT" default:"3s" json:"write_timeout"`
		PoolTimeout  time.Duration `envconfig:"CACHE_POOL_TIMEOUT" default:"5s" json:"pool_timeout"`
		MaxRetries   uint          `envconfig:"CACHE_MAX_RETRIES" default:"3" json:"max_retries"`
	}

	CatalogAPI struct {
		BaseURL        string               `envconfig:"CATALOG_API_BASE_URL" default:"http://catalog-api:8080" json:"base_url"`
		Token          string               `envconfig:"CATALOG_API_TOKEN" default:"" json:"token,omitempty"`
		FetchTimeout   time.Duration        `envconfig:"CATALOG_API_FETCH_TIMEOUT" default:"30s" json:"fetch_timeout"`
		NotifyTimeout  time.Duration        `envconfig:"CATALOG_API_NOTIFY_TIMEOUT" default:"10s" json:"notify_timeout"`
		MaxRetries     uint                 `envconfig:"CATALOG_API_MAX_RETRIES" default:"3" json:"max_retries"`
		CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker"`
		Backoff        Backoff              `json:"backoff"`
	}

	CircuitBreakerConfig struct {
		Enabled          bool          `envconfig:"CATALOG_API_CB_ENABLED" default:"true" json:"enabled"`
		MaxRequests      uint          `envconfig:"CATALOG_API_CB_MAX_REQUESTS" default:"1" json:"max_requests"`
		Interval         time.Duration `envconfig:"CATALOG_API_CB_INTERVAL" default:"60s" json:"interval"`
		Timeout          time.Duration `envconfig:"CATALOG_API_CB_TIMEOUT" default:"30s" json:"timeout"`
		FailureThreshold uint          `envconfig:"CATALOG_API_CB_FAILURE_THRESHOLD" default:"5" json:"failure_threshold"`
	}

	Backoff struct {
		BaseDelay  time.Duration `envconfig:"CATALOG_API_BACKOFF_BASE_DELAY" default:"500ms" json:"base_delay"`
		Multiplier float64       `envconfig:"CATALOG_API_BACKOFF_MULTIPLIER" default:"1.5" json:"multiplier"`
		Jitter     float64       `envconfig:"CATALOG_API_BACKOFF_JITTER" default:"0.3" json:"jitter"`
		MaxDelay   time.Duration `envconfig:"CATALOG_API_BACKOFF_MAX_DELAY" default:"10s" json:"max_delay"`
	}

	CatalogSync struct {
		Enabled      bool          `envconfig:"CATALOG_SYNC_ENABLED" default:"true" json:"enabled"`
		Interval     time.Duration `envconfig:"CATALOG_SYNC_INTERVAL" default:"120s" json:"interval"`
		InitialDelay time.Duration `envconfig:"CATALOG_SYNC_INITIAL_DELAY" default:"5s" json:"initial_delay"`
		LockEnabled  bool          `envconfig:"CATALOG_SYNC_LOCK_ENABLED" default:"true" json:"lock_enabled"`
		LockTTL      time.Duration `envconfig:"CATALOG_SYNC_LOCK_TTL" default:"5m" json:"lock_ttl"`
	}

	Kafka struct {
		Brokers        []string      `envconfig:"KAFKA_BROKERS" default:"" json:"brokers"`
		ClientID       string        `envconfig:"KAFKA_CLIENT_ID" default:"svc-storefront" json:"client_id"`
		SaleTopic      string        `envconfig:"KAFKA_SALE_TOPIC" default:"storefront.sale.registered" json:"sale_topic"`
		CatalogTopic   string        `envconfig:"KAFKA_CATALOG_TOPIC" default:"storefront.catalog.synchronized" json:"catalog_topic"`
		WriteTimeout   time.Duration `envconfig:"KAFKA_WRITE_TIMEOUT" default:"10s" json:"write_timeout"`
		BatchTimeout   time.Duration `envconfig:"KAFKA_BATCH_TIMEOUT" default:"50ms" json:"batch_timeout"`
		PublishTimeout time.Duration `envconfig:"KAFKA_PUBLISH_TIMEOUT" default:"5s" json:"publish_timeout"`
		AllowAutoTopic bool          `envconfig:"KAFKA_ALLOW_AUTO_TOPIC_CREATION" default:"false" json:"allow_auto_topic_creation"`
		RequireAllAcks bool          `envconfig:"KAFKA_REQUIRE_ALL_ACKS" default:"true" json:"require_all_acks"`
	}

	ThrottledRateLimiting struct {
		Enabled           bool     `envconfig:"RATE_LIMITING_ENABLED" default:"true" json:"enabled"`
		RequestsPerSecond uint     `envconfig:"RATE_LIMITING_REQUESTS_PER_SECOND" default:"10" json:"requests_per_second"`
		BurstSize         uint     `envconfig:"RATE_LIMITING_BURST_SIZE" default:"20" json:"burst_size"`
		SkipPaths         []string `envconfig:"RATE_LIMITING_SKIP_PATHS" default:"/v1/liveness,/v1/readiness" json:"skip_paths"`
		GracefulDegraded  bool     `envconfig:"RATE_LIMITING_GRACEFUL_DEGRADED" default:"true" json:"graceful_degraded"`
	}

	Idempotency struct {
		Enabled          bool          `envconfig:"IDEMPOTENCY_ENABLED" default:"true" json:"enabled"`
		CacheTTL         time.Duration `envconfig:"IDEMPOTENCY_CACHE_TTL" default:"24h" json:"cache_ttl"`
		LockTTL          time.Duration `envconfig:"IDEMPOTENCY_LOCK_TTL" default:"30s" json:"lock_ttl"`
		RequiredMethods  []string      `envconfig:"IDEMPOTENCY_REQUIRED_METHODS" default:"POST" json:"required_methods"`
		HeaderName       string        `envconfig:"IDEMPOTENCY_HEADER" default:"Idempotency-Key" json:"header_name"`
		ReplayedHeader   string        `envconfig:"IDEMPOTENCY_REPLAYED_HEADER" default:"Idempotent-Replayed" json:"replayed_header"`
		GracefulDegraded bool          `envconfig:"IDEMPOTENCY_GRACEFUL_DEGRADED" default:"true" json:"graceful_degraded"`
	}

	RequestValidation struct {
		Enabled bool `envconfig:"REQUEST_VALIDATION_ENABLED" default:"true" json:"enabled"`
	}

	CORS struct {
		Enabled        bool          `envconfig:"CORS_ENABLED" default:"true" json:"enabled"`
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*" json:"allowed_origins"`
		MaxAge         time.Duration `envconfig:"CORS_MAX_AGE" default:"10m" json:"max_age"`
	}

	SaleCache struct {
		Enabled      bool          `envconfig:"SALE_CACHE_ENABLED" default:"true" json:"enabled"`
		TTL          time.Duration `envconfig:"SALE_CACHE_TTL" default:"10m" json:"ttl"`
		WriteTimeout time.Duration `envconfig:"SALE_CACHE_WRITE_TIMEOUT" default:"2s" json:"write_timeout"`
	}

	Logging struct {
		Level     string    `envconfig:"LOG_LEVEL" default:"info" json:"level"`
		Format    string    `envconfig:"LOG_FORMAT" default:"json" json:"format"`
		AccessLog AccessLog `json:"access_log"`
	}

	AccessLog struct {
		Enabled         bool `envconfig:"ACCESS_LOG_ENABLED" default:"true" json:"enabled"`
		LogHealthChecks bool `envconfig:"ACCESS_LOG_HEALTH_CHECKS" default:"false" json:"log_health_checks"`
		IncludeQuery    bool `envconfig:"ACCESS_LOG_INCLUDE_QUERY" default:"true" json:"include_query"`
	}

	Telemetry struct {
		ServiceName  string  `envconfig:"OTEL_SERVICE_NAME" default:"svc-storefront" json:"service_name"`
		OTLPEndpoint string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"" json:"otlp_endpoint"`
		Metrics      Metrics `json:"metrics"`
		Traces       Traces  `json:"traces"`
	}

	Metrics struct {
		Enabled bool `envconfig:"METRICS_ENABLED" default:"false" json:"enabled"`
	}

	Traces struct {
		SamplerRatio float64 `envconfig:"TRACES_SAMPLER_RATIO" default:"1.0" json:"sampler_ratio"`
	}
)

func (c *ServiceConfig) GetEnvironment() int {
	switch c.App.Env.Name {
	case "production", "prod":
		return Production
	case "staging", "stg":
		return Staging
	case "sandbox", "sbx":
		return Sandbox
	default:
		return Development
	}
}

func (c *ServiceConfig) IsProduction() bool {
	return c.GetEnvironment() == Production
}

// KafkaEnabled reports whether at least one broker is configured.
func (c *ServiceConfig) KafkaEnabled() bool {
	for _, broker := range c.Kafka.Brokers {
		if broker != "" {
			return true
		}
	}

	return false
}
