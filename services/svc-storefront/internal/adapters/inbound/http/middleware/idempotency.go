package middleware

import (
	"bytes"
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/architeacher/storefront/pkg/idempotency"
	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/services/svc-storefront/internal/config"
	"github.com/architeacher/storefront/services/svc-storefront/internal/ports"
)

// Idempotency replays the stored response of a successful request that is
// retried with the same Idempotency-Key. Concurrent retries get 409 while the
// first one is still running.
func Idempotency(
	cache ports.IdempotencyCache,
	cfg config.Idempotency,
	log logger.Logger,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Enabled || cache == nil || !slices.Contains(cfg.RequiredMethods, r.Method) {
				next.ServeHTTP(w, r)

				return
			}

			raw := r.Header.Get(cfg.HeaderName)
			if raw == "" {
				next.ServeHTTP(w, r)

				return
			}

			key, err := idempotency.Parse(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_IDEMPOTENCY_KEY", err.Error())

				return
			}

			ctx := r.Context()
			cacheKey := key.Scope(r.Method, r.URL.Path)

			cached, err := cache.Get(ctx, cacheKey)
			if err != nil {
				degrade(w, r, next, cfg.GracefulDegraded, log, err, "idempotency cache get failed")

				return
			}

			if cached != nil {
				replay(w, cfg.ReplayedHeader, cached)

				return
			}

			acquired, err := cache.SetLock(ctx, cacheKey, cfg.LockTTL)
			if err != nil {
				degrade(w, r, next, cfg.GracefulDegraded, log, err, "idempotency lock failed")

				return
			}

			if !acquired {
				writeError(w, http.StatusConflict, "REQUEST_IN_PROGRESS",
					"a request with this idempotency key is already being processed")

				return
			}

			defer func() {
				if err := cache.ReleaseLock(context.WithoutCancel(ctx), cacheKey); err != nil {
					ctxLog := log.WithContext(ctx)
					ctxLog.Warn().Err(err).Stringer("idempotency_key", key).Msg("failed to release idempotency lock")
				}
			}()

			recorder := newBodyRecorder(w)
			next.ServeHTTP(recorder, r.WithContext(idempotency.WithKey(ctx, key)))

			if recorder.statusCode < http.StatusOK || recorder.statusCode >= http.StatusMultipleChoices {
				return
			}

			response := &ports.CachedResponse{
				StatusCode: recorder.statusCode,
				Headers:    recorder.capturedHeaders(),
				Body:       recorder.body.Bytes(),
				CreatedAt:  time.Now().UTC(),
			}

			if err := cache.Set(context.WithoutCancel(ctx), cacheKey, response, cfg.CacheTTL); err != nil {
				ctxLog := log.WithContext(ctx)
				ctxLog.Warn().Err(err).Stringer("idempotency_key", key).Msg("failed to store idempotent response")
			}
		})
	}
}

func replay(w http.ResponseWriter, replayedHeader string, cached *ports.CachedResponse) {
	for key, value := range cached.Headers {
		w.Header().Set(key, value)
	}

	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}

func degrade(
	w http.ResponseWriter,
	r *http.Request,
	next http.Handler,
	graceful bool,
	log logger.Logger,
	err error,
	msg string,
) {
	ctxLog := log.WithContext(r.Context())
	ctxLog.Warn().Err(err).Msg(msg)

	if graceful {
		next.ServeHTTP(w, r)

		return
	}

	writeError(w, http.StatusServiceUnavailable, "CACHE_UNAVAILABLE", "idempotency service temporarily unavailable")
}

type bodyRecorder struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func newBodyRecorder(w http.ResponseWriter) *bodyRecorder {
	return &bodyRecorder{ResponseWriter: w, statusCode: http.StatusOK}
}

func (r *bodyRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)

	return r.ResponseWriter.Write(b)
}

// capturedHeaders leaves out the tracking ids; a replay carries the ids of
// the request that triggered it.
func (r *bodyRecorder) capturedHeaders() map[string]string {
	headers := make(map[string]string)

	for key, values := range r.ResponseWriter.Header() {
		if len(values) == 0 || isTrackingHeader(key) {
			continue
		}

		headers[key] = values[0]
	}

	return headers
}

func isTrackingHeader(key string) bool {
	canonical := http.CanonicalHeaderKey(key)

	return canonical == http.CanonicalHeaderKey(RequestIDHeader) ||
		canonical == http.CanonicalHeaderKey(CorrelationIDHeader)
}
