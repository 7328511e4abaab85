package middleware

import (
	"net/http"
	"time"

	"github.com/Temutjin2k/vendor-location-sync/pkg/metrics"
)

// Metrics middleware records HTTP metrics
func (m *Middleware) Metrics(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip metrics endpoint to avoid recursion
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			inFlight := metrics.HttpRequestsInFlight.WithLabelValues(serviceName)
			inFlight.Inc()
			defer inFlight.Dec()

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			metrics.RecordHTTPMetrics(serviceName, r.Method, routeLabel(r), rec.status, time.Since(start))
		})
	}
}

// routeLabel is the matched mux pattern, so /favorites/{vendor_id} is one
// label and not one per vendor.
func routeLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return "unmatched"
}
