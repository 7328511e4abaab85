package backend

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
	"github.com/Temutjin2k/vendor-location-sync/pkg/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second, BreakerSettings{MaxFailures: 3, OpenTimeout: time.Minute}, logger.Nop()), srv
}

func TestPushLocation(t *testing.T) {
	var (
		gotMethod, gotPath, gotAuth, gotType string
		gotBody                              []byte
	)
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	})

	err := c.PushLocation(context.Background(), 12, "tok", models.Coordinate{Latitude: 38.7, Longitude: -9.1})
	if err != nil {
		t.Fatalf("PushLocation() error: %v", err)
	}

	if gotMethod != http.MethodPut || gotPath != "/vendors/12/location" {
		t.Fatalf("got %s %s", gotMethod, gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotType != "application/json" {
		t.Fatalf("Content-Type = %q", gotType)
	}
	if string(gotBody) != `{"lat":38.7,"lng":-9.1}` {
		t.Fatalf("body = %s", gotBody)
	}
}

func TestRouteCalls(t *testing.T) {
	var paths []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	if err := c.StartRoute(ctx, 3, "tok"); err != nil {
		t.Fatalf("StartRoute() error: %v", err)
	}
	if err := c.StopRoute(ctx, 3, "tok"); err != nil {
		t.Fatalf("StopRoute() error: %v", err)
	}

	if len(paths) != 2 || paths[0] != "/vendors/3/routes/start" || paths[1] != "/vendors/3/routes/stop" {
		t.Fatalf("unexpected paths %v", paths)
	}
}

func TestListVendors(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vendors/" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("vendor list must not send a token")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":1,"name":"Bolas","current_lat":38.7,"current_lng":-9.1},
			{"id":2,"name":"Gelados","current_lat":null,"current_lng":null}
		]`))
	})

	vendors, err := c.ListVendors(context.Background())
	if err != nil {
		t.Fatalf("ListVendors() error: %v", err)
	}
	if len(vendors) != 2 {
		t.Fatalf("expected 2 vendors, got %d", len(vendors))
	}
	if pos, ok := vendors[0].Position(); !ok || pos.Lat != 38.7 || pos.Name != "Bolas" {
		t.Fatalf("unexpected first vendor %+v", pos)
	}
	if _, ok := vendors[1].Position(); ok {
		t.Fatalf("vendor without coordinates must have no position")
	}
}

func TestStatusError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "token expired", http.StatusUnauthorized)
	})

	err := c.StartRoute(context.Background(), 1, "old")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 StatusError, got %v", err)
	}
}

func TestCircuitBreaker(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})
	ctx := context.Background()
	pos := models.Coordinate{Latitude: 1, Longitude: 1}

	for i := 0; i < 3; i++ {
		if err := c.PushLocation(ctx, 1, "tok", pos); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}

	err := c.PushLocation(ctx, 1, "tok", pos)
	if !errors.Is(err, types.ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if hits.Load() != 3 {
		t.Fatalf("open circuit must not reach the server, got %d hits", hits.Load())
	}
}

func TestCircuitBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	var hits atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	for i := 0; i < 5; i++ {
		err := c.PushLocation(context.Background(), 1, "tok", models.Coordinate{})
		if errors.Is(err, types.ErrCircuitOpen) {
			t.Fatalf("4xx must not open the circuit (call %d)", i)
		}
	}
	if hits.Load() != 5 {
		t.Fatalf("expected 5 hits, got %d", hits.Load())
	}
}
