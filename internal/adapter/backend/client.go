package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
	"github.com/Temutjin2k/vendor-location-sync/pkg/logger"
	wrap "github.com/Temutjin2k/vendor-location-sync/pkg/logger/wrapper"
	"github.com/Temutjin2k/vendor-location-sync/pkg/metrics"
)

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected response status %d", e.Code)
	}
	return fmt.Sprintf("unexpected response status %d: %s", e.Code, e.Body)
}

type BreakerSettings struct {
	// consecutive failures that open the circuit
	MaxFailures uint32
	// how long the circuit stays open before a trial request
	OpenTimeout time.Duration
}

// Client talks to the vendors REST backend. Every call goes through one
// circuit breaker; 4xx answers do not count as breaker failures.
type Client struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[struct{}]
	l       logger.Logger
}

func New(baseURL string, timeout time.Duration, breaker BreakerSettings, l logger.Logger) *Client {
	if breaker.MaxFailures == 0 {
		breaker.MaxFailures = 5
	}
	if breaker.OpenTimeout <= 0 {
		breaker.OpenTimeout = 30 * time.Second
	}

	const cbName = "vendors-backend"
	metrics.BackendCircuitState.WithLabelValues(cbName).Set(0)

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		l:       l,
	}

	c.cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Timeout:     breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breaker.MaxFailures
		},
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BackendCircuitState.WithLabelValues(name).Set(float64(to))
			c.l.Warn(wrap.WithAction(context.Background(), types.ActionExternalServiceFailed),
				"backend circuit breaker state changed", "from", from.String(), "to", to.String())
		},
	})

	return c
}

type locationPayload struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// StartRoute calls POST /vendors/{id}/routes/start.
func (c *Client) StartRoute(ctx context.Context, vendorID int64, token string) error {
	const op = "BackendClient.StartRoute"
	path := fmt.Sprintf("/vendors/%d/routes/start", vendorID)
	if err := c.do(ctx, types.EndpointRouteStart, http.MethodPost, path, token, nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// StopRoute calls POST /vendors/{id}/routes/stop.
func (c *Client) StopRoute(ctx context.Context, vendorID int64, token string) error {
	const op = "BackendClient.StopRoute"
	path := fmt.Sprintf("/vendors/%d/routes/stop", vendorID)
	if err := c.do(ctx, types.EndpointRouteStop, http.MethodPost, path, token, nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// PushLocation calls PUT /vendors/{id}/location with {lat, lng}.
func (c *Client) PushLocation(ctx context.Context, vendorID int64, token string, pos models.Coordinate) error {
	const op = "BackendClient.PushLocation"
	path := fmt.Sprintf("/vendors/%d/location", vendorID)
	body := locationPayload{Lat: pos.Latitude, Lng: pos.Longitude}
	if err := c.do(ctx, types.EndpointLocation, http.MethodPut, path, token, body, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListVendors calls GET /vendors/. No auth is needed.
func (c *Client) ListVendors(ctx context.Context) ([]models.VendorSummary, error) {
	const op = "BackendClient.ListVendors"
	var vendors []models.VendorSummary
	if err := c.do(ctx, types.EndpointVendors, http.MethodGet, "/vendors/", "", nil, &vendors); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return vendors, nil
}

func (c *Client) do(ctx context.Context, endpoint, method, path, token string, body, out any) error {
	start := time.Now()
	_, err := c.cb.Execute(func() (struct{}, error) {
		return struct{}{}, c.roundTrip(ctx, method, path, token, body, out)
	})
	metrics.RecordBackendCall(endpoint, err, time.Since(start))

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return wrap.Error(ctx, fmt.Errorf("%w: %v", types.ErrCircuitOpen, err))
	}
	if err != nil {
		ctx = wrap.WithAction(ctx, types.ActionExternalServiceFailed)
		return wrap.Error(ctx, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request to backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode backend response: %w", err)
	}
	return nil
}
