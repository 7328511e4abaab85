package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Temutjin2k/vendor-location-sync/config"
	"github.com/Temutjin2k/vendor-location-sync/internal/adapter/http/handler"
	"github.com/Temutjin2k/vendor-location-sync/internal/adapter/http/middleware"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
	"github.com/Temutjin2k/vendor-location-sync/pkg/logger"
	wrap "github.com/Temutjin2k/vendor-location-sync/pkg/logger/wrapper"
)

const (
	serverIPAddress = "%s:%s"
	serviceName     = "vendorsync"
)

// Services are the domain services behind the control API. Sharing is
// required in vendor mode; Roster and Preferences in viewer mode.
type Services struct {
	Sharing     handler.SharingService
	Roster      handler.RosterReader
	Proximity   handler.ProximityReader
	Preferences handler.PreferencesService
	Watcher     handler.SettingsRefresher
	Bus         handler.BusStater
}

type API struct {
	mode   types.ServiceMode
	mux    *http.ServeMux
	server *http.Server
	routes *handlers // routes/handlers
	m      *middleware.Middleware

	addr            string
	shutdownTimeout time.Duration
	log             logger.Logger
}

type handlers struct {
	health      *handler.Health
	roster      *handler.Roster
	sharing     *handler.Sharing
	preferences *handler.Preferences
}

func New(cfg config.Config, services Services, logger logger.Logger) (*API, error) {
	handlers := &handlers{}

	if cfg.Mode.RunsVendor() {
		if services.Sharing == nil {
			return nil, errors.New("sharing service is required in vendor mode")
		}
		handlers.sharing = handler.NewSharing(services.Sharing, logger)
	}

	if cfg.Mode.RunsViewer() {
		if services.Roster == nil || services.Preferences == nil {
			return nil, errors.New("roster and preferences are required in viewer mode")
		}
		handlers.roster = handler.NewRoster(services.Roster, services.Proximity, logger)
		handlers.preferences = handler.NewPreferences(services.Preferences, services.Watcher, logger)
	}

	if !cfg.Mode.RunsVendor() && !cfg.Mode.RunsViewer() {
		return nil, fmt.Errorf("invalid mode: %s", cfg.Mode)
	}

	handlers.health = handler.NewHealth(serviceName, cfg.Mode, services.Bus, logger)

	api := &API{
		mode:            cfg.Mode,
		mux:             http.NewServeMux(),
		routes:          handlers,
		m:               middleware.NewMiddleware(logger),
		addr:            fmt.Sprintf(serverIPAddress, "0.0.0.0", cfg.HTTP.Port),
		shutdownTimeout: cfg.HTTP.ShutdownTimeout,
		log:             logger,
	}
	if api.shutdownTimeout <= 0 {
		api.shutdownTimeout = 5 * time.Second
	}

	setupRoutes(api.mux, api.routes, api.mode)

	api.server = &http.Server{
		Addr:              api.addr,
		Handler:           api.withMiddleware(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return api, nil
}

// Handler is the full middleware chain over the routes.
func (a *API) Handler() http.Handler {
	return a.server.Handler
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.shutdownTimeout)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

// Run listens in the background. A listen failure is sent on errCh.
func (a *API) Run(ctx context.Context, errCh chan<- error) {
	ln, err := net.Listen("tcp", a.addr)
	if err != nil {
		errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
		return
	}

	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", ln.Addr().String())
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server stopped: %w", err)
		}
	}()
}

// withMiddleware applies middlewares to the mux. RequestID is outermost
// so every later layer logs with the id and the mux sets the route
// pattern on the request the metrics layer reads.
func (a *API) withMiddleware() http.Handler {
	return a.m.RequestID(a.m.Recover(a.m.Metrics(serviceName)(a.m.Logging(a.mux))))
}
