// Package externalapi talks to the authoritative catalog system: it fetches
// the device catalog and reports completed sales.
package externalapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/architeacher/storefront/pkg/circuitbreaker"
	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/services/svc-storefront/internal/config"
	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	otelTrace "go.opentelemetry.io/otel/trace"
)

const (
	requestIDHeader = "X-Request-ID"

	maxErrorBodyBytes = 4 << 10
)

type (
	// Client is built once from configuration and shared by both gateways.
	// Each endpoint trips its own breaker; the map is fixed after NewClient.
	Client struct {
		baseURL    *url.URL
		token      string
		httpClient *http.Client
		breakers   map[string]*circuitbreaker.CircuitBreaker[[]byte]
		maxRetries uint
		backoff    config.Backoff
		logger     logger.Logger
	}

	// StatusError is returned for any non-2xx response.
	StatusError struct {
		Method     string
		Path       string
		StatusCode int
		Body       string
	}

	ClientOption func(*Client)
)

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Temporary reports whether the same request may succeed later.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// WithHTTPClient replaces the default otelhttp instrumented client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(
	cfg config.CatalogAPI,
	log logger.Logger,
	tracerProvider otelTrace.TracerProvider,
	opts ...ClientOption,
) (*Client, error) {
	baseURL, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing catalog api base url: %w", err)
	}

	if baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("catalog api base url %q must be absolute", cfg.BaseURL)
	}

	log = log.Component("catalog-api")

	client := &Client{
		baseURL: baseURL,
		token:   cfg.Token,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(
				http.DefaultTransport,
				otelhttp.WithTracerProvider(tracerProvider),
			),
		},
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		logger:     log,
	}

	client.breakers = make(map[string]*circuitbreaker.CircuitBreaker[[]byte], 2)

	for _, path := range []string{catalogPath, salePath} {
		client.breakers[path] = circuitbreaker.New[[]byte](circuitbreaker.Config{
			Name:             "catalog-api" + path,
			Enabled:          cfg.CircuitBreaker.Enabled,
			MaxRequests:      cfg.CircuitBreaker.MaxRequests,
			Interval:         cfg.CircuitBreaker.Interval,
			Timeout:          cfg.CircuitBreaker.Timeout,
			FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
			IsSuccessful:     countsAsHealthy,
			OnStateChange: func(name, from, to string) {
				log.Warn().
					Str("breaker", name).
					Str("from", from).
					Str("to", to).
					Msg("circuit breaker state changed")
			},
		})
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// BreakerState reports the breaker state of the endpoint at path,
// "disabled" when breakers are off.
func (c *Client) BreakerState(path string) string {
	breaker := c.breakers[path]
	if breaker == nil {
		return "disabled"
	}

	return breaker.State()
}

// get runs an idempotent GET with bounded retries on transient failures.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if c.maxRetries == 0 {
		return c.do(ctx, http.MethodGet, path, nil)
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.backoff.BaseDelay
	expBackoff.Multiplier = c.backoff.Multiplier
	expBackoff.RandomizationFactor = c.backoff.Jitter
	expBackoff.MaxInterval = c.backoff.MaxDelay

	operation := func() ([]byte, error) {
		body, err := c.do(ctx, http.MethodGet, path, nil)
		if err == nil {
			return body, nil
		}

		if isRetryable(err) {
			log := c.logger.WithContext(ctx)
			log.Debug().Err(err).Str("path", path).Msg("retrying catalog api call")

			return nil, err
		}

		return nil, backoff.Permanent(err)
	}

	return backoff.Retry(
		ctx,
		operation,
		backoff.WithMaxTries(c.maxRetries+1),
		backoff.WithBackOff(expBackoff),
	)
}

// post sends payload once.
func (c *Client) post(ctx context.Context, path string, payload []byte) error {
	_, err := c.do(ctx, http.MethodPost, path, payload)

	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	return circuitbreaker.Execute(c.breakers[path], func() ([]byte, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), body)
		if err != nil {
			return nil, fmt.Errorf("building %s %s request: %w", method, path, err)
		}

		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		if requestID, ok := ctx.Value(logger.ContextKeyRequestID).(string); ok && requestID != "" {
			req.Header.Set(requestIDHeader, requestID)
		}

		start := time.Now()

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
		defer resp.Body.Close()

		log := c.logger.WithContext(ctx)
		log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Dur("duration", time.Since(start)).
			Msg("catalog api call")

		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

			return nil, &StatusError{
				Method:     method,
				Path:       path,
				StatusCode: resp.StatusCode,
				Body:       strings.TrimSpace(string(snippet)),
			}
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading %s %s response: %w", method, path, err)
		}

		return data, nil
	})
}

// countsAsHealthy keeps rejected requests and caller cancellations from
// tripping a breaker: the remote side answered, or never got the chance.
func countsAsHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return !statusErr.Temporary()
	}

	return false
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if circuitbreaker.IsRejected(err) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, io.ErrUnexpectedEOF)
}
