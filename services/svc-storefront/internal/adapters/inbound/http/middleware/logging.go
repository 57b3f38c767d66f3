package middleware

import (
	"net/http"
	"time"

	"github.com/architeacher/storefront/pkg/logger"
	"github.com/architeacher/storefront/services/svc-storefront/internal/config"
)

// AccessLogger writes one structured line per request. Requests flagged by
// HealthCheckFilter are left out.
func AccessLogger(log logger.Logger, cfg config.AccessLog) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ShouldSkipAccessLog(r.Context()) {
				next.ServeHTTP(w, r)

				return
			}

			start := time.Now()
			recorder := newStatusRecorder(w)

			next.ServeHTTP(recorder, r)

			reqLogger := log.WithContext(r.Context()).
				With().
				Str("component", "http").
				Logger()

			event := reqLogger.Info()
			switch {
			case recorder.statusCode >= http.StatusInternalServerError:
				event = reqLogger.Error()
			case recorder.statusCode >= http.StatusBadRequest:
				event = reqLogger.Warn()
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Str("user_agent", r.UserAgent()).
				Int("status", recorder.statusCode).
				Uint64("bytes", recorder.bytesWritten).
				Int64("duration_ms", time.Since(start).Milliseconds())

			if cfg.IncludeQuery && r.URL.RawQuery != "" {
				event.Str("query", r.URL.RawQuery)
			}

			event.Msg("request handled")
		})
	}
}
