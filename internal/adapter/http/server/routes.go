package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
)

// setupRoutes - setups http routes
func setupRoutes(mux *http.ServeMux, routes *handlers, mode types.ServiceMode) {
	// System Health
	mux.HandleFunc("GET /health", routes.health.HealthCheck)

	setupSwaggerRoutes(mux)
	setupMetricsRoute(mux)

	if mode.RunsVendor() {
		setupSharingRoutes(mux, routes)
	}
	if mode.RunsViewer() {
		setupViewerRoutes(mux, routes)
	}
}

// setupSharingRoutes setups routes of the vendor role
func setupSharingRoutes(mux *http.ServeMux, routes *handlers) {
	mux.HandleFunc("GET /sharing", routes.sharing.Status)      // Current session and persisted flag
	mux.HandleFunc("POST /sharing/start", routes.sharing.Start) // Start broadcasting this device's position
	mux.HandleFunc("POST /sharing/stop", routes.sharing.Stop)   // Stop broadcasting
}

// setupViewerRoutes setups routes of the viewer role
func setupViewerRoutes(mux *http.ServeMux, routes *handlers) {
	mux.HandleFunc("GET /roster", routes.roster.List)            // Live vendor positions
	mux.HandleFunc("GET /roster/{vendor_id}", routes.roster.Get) // One vendor, with nearby flag

	mux.HandleFunc("GET /favorites", routes.preferences.ListFavorites)
	mux.HandleFunc("POST /favorites/{vendor_id}", routes.preferences.AddFavorite)
	mux.HandleFunc("DELETE /favorites/{vendor_id}", routes.preferences.RemoveFavorite)

	mux.HandleFunc("GET /settings/notifications", routes.preferences.GetSettings)
	mux.HandleFunc("PUT /settings/notifications", routes.preferences.UpdateSettings)
}

// setupSwaggerRoutes serves the Swagger UI of the control API
func setupSwaggerRoutes(mux *http.ServeMux) {
	swaggerURL := httpSwagger.InstanceName("vendorsync")
	mux.HandleFunc("/swagger/", httpSwagger.Handler(swaggerURL))
}

// setupMetricsRoute configures the Prometheus metrics endpoint
func setupMetricsRoute(mux *http.ServeMux) {
	mux.Handle("/metrics", promhttp.Handler())
}
