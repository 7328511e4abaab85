package middleware

import (
	"net/http"

	"github.com/google/uuid"

	wrap "github.com/Temutjin2k/vendor-location-sync/pkg/logger/wrapper"
)

const RequestIDHeader = "X-Request-ID"

// RequestID puts the caller's X-Request-ID, or a fresh one, into the log
// context and echoes it on the response.
func (m *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := wrap.WithRequestID(r.Context(), id)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
