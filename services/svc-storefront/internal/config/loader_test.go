package config

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecretsRepository struct {
	token    string
	secret   *api.Secret
	failures int
	reads    int
	login    *api.Secret
}

func (f *fakeSecretsRepository) SetToken(v string) {
	f.token = v
}

func (f *fakeSecretsRepository) GetSecrets(_ context.Context, _ string) (*api.Secret, error) {
	f.reads++
	if f.reads <= f.failures {
		return nil, errors.New("vault sealed")
	}

	return f.secret, nil
}

func (f *fakeSecretsRepository) WriteWithContext(_ context.Context, _ string, _ map[string]any) (*api.Secret, error) {
	if f.login == nil {
		return nil, errors.New("permission denied")
	}

	return f.login, nil
}

func kvSecret(version float64, data map[string]any) *api.Secret {
	return &api.Secret{
		Data: map[string]any{
			"data":     data,
			"metadata": map[string]any{"version": version},
		},
	}
}

func vaultConfig(t *testing.T) *ServiceConfig {
	t.Helper()

	// Restored after the test since the loader exports applied secrets.
	t.Setenv("CATALOG_API_TOKEN", "")
	t.Setenv("POSTGRES_PASSWORD", "")
	t.Setenv("CACHE_PASSWORD", "")

	cfg, err := Init()
	require.NoError(t, err)

	cfg.SecretsStorage.Enabled = true
	cfg.SecretsStorage.Token = "root"
	cfg.SecretsStorage.Timeout = 5 * time.Second
	cfg.SecretsStorage.MaxRetries = 2

	return cfg
}

func TestInit(t *testing.T) {
	t.Setenv("APP_ENVIRONMENT", "sandbox")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CATALOG_API_BASE_URL", "http://catalog.local")
	t.Setenv("CATALOG_SYNC_INTERVAL", "30s")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Init()
	require.NoError(t, err)

	assert.Equal(t, "sandbox", cfg.App.Env.Name)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "http://catalog.local", cfg.CatalogAPI.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.CatalogSync.Interval)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.KafkaEnabled())
}

func TestInit_DefaultValues(t *testing.T) {
	cfg, err := Init()
	require.NoError(t, err)

	assert.Equal(t, "svc-storefront", cfg.App.ServiceName)
	assert.Equal(t, "v1", cfg.App.APIVersion)

	assert.Equal(t, "0.0.0.0", cfg.HTTPServer.Host)
	assert.Equal(t, uint(8080), cfg.HTTPServer.Port)

	assert.True(t, cfg.CatalogSync.Enabled)
	assert.Equal(t, 120*time.Second, cfg.CatalogSync.Interval)
	assert.Equal(t, 5*time.Second, cfg.CatalogSync.InitialDelay)

	assert.Equal(t, "storefront.sale.registered", cfg.Kafka.SaleTopic)
	assert.Equal(t, "storefront.catalog.synchronized", cfg.Kafka.CatalogTopic)
	assert.False(t, cfg.KafkaEnabled())

	assert.True(t, cfg.RequestValidation.Enabled)
	assert.True(t, cfg.CORS.Enabled)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 10*time.Minute, cfg.CORS.MaxAge)

	assert.False(t, cfg.SecretsStorage.Enabled)
	assert.Equal(t, "token", cfg.SecretsStorage.AuthMethod)
	assert.Equal(t, "svc-storefront", cfg.SecretsStorage.MountPath)
}

func TestInit_CompileTimeVersion(t *testing.T) {
	ServiceVersion = "1.4.2"
	t.Cleanup(func() { ServiceVersion = "" })

	cfg, err := Init()
	require.NoError(t, err)

	assert.Equal(t, "1.4.2", cfg.App.ServiceVersion)
}

func TestGetEnvironment(t *testing.T) {
	cases := []struct {
		name     string
		env      string
		expected int
	}{
		{name: "production", env: "production", expected: Production},
		{name: "prod shorthand", env: "prod", expected: Production},
		{name: "staging", env: "staging", expected: Staging},
		{name: "stg shorthand", env: "stg", expected: Staging},
		{name: "sandbox", env: "sandbox", expected: Sandbox},
		{name: "sbx shorthand", env: "sbx", expected: Sandbox},
		{name: "development default", env: "anything", expected: Development},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &ServiceConfig{App: App{Env: Environment{Name: tc.env}}}

			assert.Equal(t, tc.expected, cfg.GetEnvironment())
			assert.Equal(t, tc.expected == Production, cfg.IsProduction())
		})
	}
}

func TestLoader_Load(t *testing.T) {
	cfg := vaultConfig(t)

	repo := &fakeSecretsRepository{
		failures: 1,
		secret: kvSecret(3, map[string]any{
			"CATALOG_API_TOKEN": "catalog-secret",
			"POSTGRES_PASSWORD": "pg-secret",
			"CACHE_PASSWORD":    "",
		}),
	}

	loader := NewLoader(cfg, repo, 0)

	version, err := loader.Load(t.Context())
	require.NoError(t, err)

	assert.Equal(t, uint(3), version)
	assert.Equal(t, uint(3), loader.Version())
	assert.Equal(t, "root", repo.token)
	assert.Equal(t, 2, repo.reads)
	assert.Equal(t, "catalog-secret", cfg.CatalogAPI.Token)
	assert.Equal(t, "pg-secret", cfg.Database.Password)
	assert.Empty(t, cfg.Cache.Password)
}

func TestLoader_Load_Errors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(cfg *ServiceConfig)
		repo   *fakeSecretsRepository
		errMsg string
	}{
		{
			name:   "disabled storage",
			mutate: func(cfg *ServiceConfig) { cfg.SecretsStorage.Enabled = false },
			repo:   &fakeSecretsRepository{},
			errMsg: ErrSecretsStorageDisabled.Error(),
		},
		{
			name:   "missing token",
			mutate: func(cfg *ServiceConfig) { cfg.SecretsStorage.Token = "" },
			repo:   &fakeSecretsRepository{},
			errMsg: "token is required",
		},
		{
			name: "approle login rejected",
			mutate: func(cfg *ServiceConfig) {
				cfg.SecretsStorage.AuthMethod = "approle"
				cfg.SecretsStorage.RoleID = "r"
				cfg.SecretsStorage.SecretID = "s"
			},
			repo:   &fakeSecretsRepository{},
			errMsg: "permission denied",
		},
		{
			name:   "unsupported auth method",
			mutate: func(cfg *ServiceConfig) { cfg.SecretsStorage.AuthMethod = "kubernetes" },
			repo:   &fakeSecretsRepository{},
			errMsg: "unsupported auth method",
		},
		{
			name:   "retries exhausted",
			mutate: func(_ *ServiceConfig) {},
			repo:   &fakeSecretsRepository{failures: 10},
			errMsg: "vault sealed",
		},
		{
			name:   "malformed secret",
			mutate: func(_ *ServiceConfig) {},
			repo:   &fakeSecretsRepository{secret: &api.Secret{Data: map[string]any{"foo": "bar"}}},
			errMsg: "missing 'data' key",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := vaultConfig(t)
			tc.mutate(cfg)

			_, err := NewLoader(cfg, tc.repo, 0).Load(t.Context())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestLoader_Load_AppRole(t *testing.T) {
	cfg := vaultConfig(t)
	cfg.SecretsStorage.AuthMethod = "AppRole"
	cfg.SecretsStorage.RoleID = "role"
	cfg.SecretsStorage.SecretID = "secret"

	repo := &fakeSecretsRepository{
		login:  &api.Secret{Auth: &api.SecretAuth{ClientToken: "issued-token"}},
		secret: kvSecret(1, map[string]any{"CACHE_PASSWORD": "keydb"}),
	}

	_, err := NewLoader(cfg, repo, 0).Load(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "issued-token", repo.token)
	assert.Equal(t, "keydb", cfg.Cache.Password)
}

func TestLoader_HandleConfigReload(t *testing.T) {
	cfg := vaultConfig(t)

	repo := &fakeSecretsRepository{
		secret: kvSecret(2, map[string]any{"CATALOG_API_TOKEN": "rotated"}),
	}

	loader := NewLoader(cfg, repo, 1)

	loader.handleConfigReload(t.Context())

	select {
	case err := <-loader.reloadErrors:
		require.NoError(t, err)
	default:
		t.Fatal("expected reload status")
	}

	assert.Equal(t, "rotated", cfg.CatalogAPI.Token)
	assert.Equal(t, uint(2), loader.Version())

	// Same version again is a no-op.
	loader.handleConfigReload(t.Context())

	select {
	case <-loader.reloadErrors:
		t.Fatal("unexpected reload status")
	default:
	}
}
