package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics (local control API)
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
		[]string{"service"},
	)

	// Location bus
	BusConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "location_bus_connected",
			Help: "1 when the location websocket is connected",
		},
	)

	BusReconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "location_bus_reconnects_total",
			Help: "Total number of scheduled reconnect attempts",
		},
	)

	BusMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "location_bus_messages_total",
			Help: "Total number of websocket frames received",
		},
		[]string{"status"},
	)

	BusSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "location_bus_subscribers",
			Help: "Current number of bus subscribers",
		},
	)

	// Roster
	RosterVendors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roster_vendors_total",
			Help: "Current number of vendors in the roster",
		},
	)

	// Publisher
	LocationPushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "location_pushes_total",
			Help: "Total number of location pushes to the backend",
		},
		[]string{"status"},
	)

	BackendCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_calls_total",
			Help: "Total number of backend REST calls",
		},
		[]string{"endpoint", "status"},
	)

	BackendCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_call_duration_seconds",
			Help:    "Backend REST call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	BackendCircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "backend_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	SharingActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "location_sharing_active",
			Help: "1 while this device is sharing its location",
		},
	)

	// Proximity
	ProximityNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proximity_notifications_total",
			Help: "Total number of proximity notifications",
		},
		[]string{"status"},
	)

	RabbitMQMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_messages_published_total",
			Help: "Total number of messages published to RabbitMQ",
		},
		[]string{"exchange", "status"},
	)
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordHTTPMetrics records HTTP request metrics
func RecordHTTPMetrics(service, method, path string, statusCode int, duration time.Duration) {
	code := strconv.Itoa(statusCode)
	HttpRequestsTotal.WithLabelValues(service, method, path, code).Inc()
	HttpRequestDuration.WithLabelValues(service, method, path, code).Observe(duration.Seconds())
}

// RecordBackendCall records a REST call to the vendors backend
func RecordBackendCall(endpoint string, err error, duration time.Duration) {
	BackendCallsTotal.WithLabelValues(endpoint, status(err)).Inc()
	BackendCallDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordLocationPush records one per-fix push
func RecordLocationPush(err error) {
	LocationPushesTotal.WithLabelValues(status(err)).Inc()
}

// RecordNotification records a proximity notification attempt
func RecordNotification(err error) {
	ProximityNotificationsTotal.WithLabelValues(status(err)).Inc()
}

// RecordRabbitMQPublish records RabbitMQ publish metrics
func RecordRabbitMQPublish(exchange string, err error) {
	RabbitMQMessagesPublished.WithLabelValues(exchange, status(err)).Inc()
}

// SetBool sets a 0/1 gauge
func SetBool(g prometheus.Gauge, v bool) {
	if v {
		g.Set(1)
		return
	}
	g.Set(0)
}
