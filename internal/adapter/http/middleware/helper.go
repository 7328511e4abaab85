package middleware

import (
	"bufio"
	"net"
	"net/http"

	"github.com/goccy/go-json"
)

type envelope map[string]any

// errorResponse writes {"error": message}. Encoding failures fall back to a
// bare status.
func errorResponse(w http.ResponseWriter, status int, message any) {
	js, err := json.Marshal(envelope{"error": message})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(js)
}

// statusRecorder remembers the response status. A handler that never calls
// WriteHeader answered 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack keeps http.Hijacker available to handlers behind the wrapper.
func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return h.Hijack()
}
