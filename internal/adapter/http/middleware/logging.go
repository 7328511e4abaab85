package middleware

import (
	"net/http"
	"time"
)

// Logging writes one line per request once it completes. Server errors are
// logged at Warn, everything else at Debug.
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"route", routeLabel(r),
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if rec.status >= http.StatusInternalServerError {
			m.log.Warn(r.Context(), "request failed", args...)
			return
		}
		m.log.Debug(r.Context(), "request completed", args...)
	})
}
