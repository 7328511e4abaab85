package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Temutjin2k/vendor-location-sync/config"
	"github.com/Temutjin2k/vendor-location-sync/internal/adapter/backend"
	"github.com/Temutjin2k/vendor-location-sync/internal/adapter/http/server"
	"github.com/Temutjin2k/vendor-location-sync/internal/adapter/location"
	"github.com/Temutjin2k/vendor-location-sync/internal/adapter/token"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
	"github.com/Temutjin2k/vendor-location-sync/internal/service/preferences"
	"github.com/Temutjin2k/vendor-location-sync/pkg/logger"
	wrap "github.com/Temutjin2k/vendor-location-sync/pkg/logger/wrapper"
)

var (
	ErrInvalidMode           = errors.New("invalid mode")
	ErrServiceNotInitialized = errors.New("service not initialized")
)

// Role is one side of the agent (vendor or viewer).
type Role interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context)
}

type App struct {
	mode  types.ServiceMode
	roles []Role

	storage    *storage
	prefs      *preferences.Service
	backend    *backend.Client
	simulator  *location.Simulator
	perms      *location.Permissions
	httpServer *server.API

	cfg config.Config
	log logger.Logger
}

// NewApplication builds every component the mode needs. Nothing runs until
// Start.
func NewApplication(ctx context.Context, cfg config.Config, log logger.Logger) (*App, error) {
	if !cfg.Mode.RunsVendor() && !cfg.Mode.RunsViewer() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, cfg.Mode)
	}

	app := &App{
		mode: cfg.Mode,
		cfg:  cfg,
		log:  log,
	}

	if err := app.init(ctx); err != nil {
		app.close(ctx)
		return nil, err
	}

	return app, nil
}

func (a *App) init(ctx context.Context) error {
	st, err := openStorage(ctx, a.cfg.Storage, a.log)
	if err != nil {
		return fmt.Errorf("failed to setup storage: %w", err)
	}
	a.storage = st
	a.prefs = preferences.New(st.kv).WithTransactor(st.tx)

	if a.cfg.Auth.Token != "" {
		if err := a.prefs.SetToken(ctx, a.cfg.Auth.Token); err != nil {
			return fmt.Errorf("failed to store auth token: %w", err)
		}
	}

	a.backend = backend.New(a.cfg.Backend.BaseURL, a.cfg.Backend.RequestTimeout, backend.BreakerSettings{
		MaxFailures: a.cfg.Backend.Breaker.MaxFailures,
		OpenTimeout: a.cfg.Backend.Breaker.OpenTimeout,
	}, a.log)

	a.perms = location.NewPermissions(a.cfg.Location.GrantLocation, a.cfg.Location.GrantNotifications)
	a.simulator = location.NewSimulator(simulatorConfig(a.cfg.Location), a.perms, a.log)

	services := server.Services{Preferences: a.prefs}

	if a.mode.RunsVendor() {
		vendor := newVendorRole(a.cfg, a.perms, a.simulator, a.backend, token.NewSource(a.prefs, a.cfg.Auth.Leeway), a.prefs, a.log)
		a.roles = append(a.roles, vendor)
		services.Sharing = vendor.publisher
	}

	if a.mode.RunsViewer() {
		viewer, err := newViewerRole(ctx, a.cfg, a.perms, a.simulator, a.backend, a.prefs, a.log)
		if err != nil {
			return fmt.Errorf("failed to setup viewer: %w", err)
		}
		a.roles = append(a.roles, viewer)
		services.Roster = viewer.store
		services.Proximity = viewer.notifier
		services.Watcher = viewer.watcher
		services.Bus = viewer.bus
	}

	a.httpServer, err = server.New(a.cfg, services, a.log)
	if err != nil {
		return fmt.Errorf("failed to setup http server: %w", err)
	}

	return nil
}

func simulatorConfig(cfg config.LocationConfig) location.Config {
	waypoints := make([]models.Coordinate, 0, len(cfg.Waypoints))
	for _, w := range cfg.Waypoints {
		waypoints = append(waypoints, models.Coordinate{Latitude: w.Lat, Longitude: w.Lng})
	}
	return location.Config{
		Waypoints: waypoints,
		Speed:     cfg.Speed,
		Tick:      cfg.Tick,
		Loop:      cfg.Loop,
		Accuracy:  cfg.Accuracy,
	}
}

// Run starts the app and blocks until SIGINT/SIGTERM or a server failure.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	if err := a.Start(ctx, errCh); err != nil {
		return err
	}
	defer func() {
		a.Shutdown(ctx)
		a.log.Info(ctx, "vendorsync closed")
	}()

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)

	a.log.Info(ctx, "vendorsync has been started", "mode", string(a.mode))

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		a.log.Info(ctx, "shutting down application", "signal", sig.String())
		return nil
	}
}

// Start starts every role and the HTTP server. Server failures after the
// listener is up are sent on errCh.
func (a *App) Start(ctx context.Context, errCh chan<- error) error {
	if len(a.roles) == 0 || a.httpServer == nil {
		return ErrServiceNotInitialized
	}

	for i, role := range a.roles {
		if err := role.Start(ctx); err != nil {
			for _, started := range a.roles[:i] {
				started.Stop(ctx)
			}
			return fmt.Errorf("failed to start: %w", err)
		}
	}

	a.httpServer.Run(ctx, errCh)
	return nil
}

// Shutdown stops the HTTP server first so no request races the roles
// going down, then the roles, then closes storage.
func (a *App) Shutdown(ctx context.Context) {
	ctx = wrap.WithAction(ctx, "app_shutdown")

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Warn(ctx, "Failed to gracefully close http server", "error", err.Error())
		}
	}

	for i := len(a.roles) - 1; i >= 0; i-- {
		a.roles[i].Stop(ctx)
	}

	a.close(ctx)
}

// closer is implemented by roles that own connections of their own.
type closer interface {
	Close(ctx context.Context)
}

func (a *App) close(ctx context.Context) {
	for i := len(a.roles) - 1; i >= 0; i-- {
		if c, ok := a.roles[i].(closer); ok {
			c.Close(ctx)
		}
	}

	if a.storage != nil {
		a.storage.Close(ctx)
		a.storage = nil
	}
}
