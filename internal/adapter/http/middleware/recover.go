package middleware

import (
	"fmt"
	"net/http"

	wrap "github.com/Temutjin2k/vendor-location-sync/pkg/logger/wrapper"
)

func (m *Middleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				err := fmt.Errorf("%v", p)
				m.log.Error(wrap.WithAction(r.Context(), "http_panic"), "panic while serving request", err, "URL", r.URL.Path)
				w.Header().Set("Connection", "close")
				errorResponse(w, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
