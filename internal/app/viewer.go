package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/Temutjin2k/vendor-location-sync/config"
	rabbitadapter "github.com/Temutjin2k/vendor-location-sync/internal/adapter/rabbit"
	"github.com/Temutjin2k/vendor-location-sync/internal/adapter/notify"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
	"github.com/Temutjin2k/vendor-location-sync/internal/service/bus"
	"github.com/Temutjin2k/vendor-location-sync/internal/service/proximity"
	"github.com/Temutjin2k/vendor-location-sync/internal/service/roster"
	"github.com/Temutjin2k/vendor-location-sync/pkg/logger"
	wrap "github.com/Temutjin2k/vendor-location-sync/pkg/logger/wrapper"
	"github.com/Temutjin2k/vendor-location-sync/pkg/rabbit"
	"github.com/Temutjin2k/vendor-location-sync/pkg/wsconn"
)

// viewerRole keeps the live roster and raises proximity alerts.
type viewerRole struct {
	bus      *bus.LocationBus
	store    *roster.Store
	syncer   *roster.Syncer
	notifier *proximity.Notifier
	watcher  *proximity.Watcher
	rabbit   *rabbit.RabbitMQ

	mu          sync.Mutex
	unsubscribe bus.Unsubscribe
	cancel      context.CancelFunc
	done        chan struct{}

	log logger.Logger
}

func newViewerRole(
	ctx context.Context,
	cfg config.Config,
	perms proximity.PermissionRequester,
	source proximity.LocationSource,
	lister roster.VendorLister,
	prefs proximity.Preferences,
	log logger.Logger,
) (*viewerRole, error) {
	busURL, err := bus.URLFromBase(cfg.Backend.BaseURL, cfg.Bus.Path)
	if err != nil {
		return nil, fmt.Errorf("location bus url: %w", err)
	}

	r := &viewerRole{log: log}

	sender, err := r.newSender(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	r.bus = bus.New(busURL, bus.WebSocket(wsconn.NewDialer(cfg.Bus.HandshakeTimeout)), log,
		bus.WithReconnectPolicy(bus.NewReconnectPolicy(cfg.Bus.ReconnectStrategy, cfg.Bus.ReconnectDelay, cfg.Bus.MaxReconnectDelay)),
		bus.WithHandshakeTimeout(cfg.Bus.HandshakeTimeout),
	)
	r.store = roster.NewStore()
	r.syncer = roster.NewSyncer(r.store, lister, cfg.Roster.ReseedInterval, log)
	r.notifier = proximity.NewNotifier(sender, log)
	r.watcher = proximity.NewWatcher(r.notifier, perms, source, r.store, prefs, models.WatchOptions{
		Accuracy:         cfg.Proximity.Accuracy,
		DistanceInterval: cfg.Proximity.DistanceInterval,
	}, log)

	// a reconnect may have missed deltas
	r.bus.OnConnected(r.syncer.Trigger)

	return r, nil
}

// newSender logs every notification and, with rabbitmq.enabled, also hands
// it to the notification agent on the broker.
func (r *viewerRole) newSender(ctx context.Context, cfg config.Config, log logger.Logger) (proximity.Sender, error) {
	logSender := notify.NewLogSender(log)
	if !cfg.RabbitMQ.Enabled {
		return logSender, nil
	}

	client, err := rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
	if err != nil {
		log.Error(ctx, "Failed to connect to rabbitmq", err)
		return nil, err
	}

	producer, err := rabbitadapter.NewNotificationProducer(client, cfg.RabbitMQ.Exchange, cfg.Storage.DeviceID)
	if err != nil {
		_ = client.Close(ctx)
		return nil, fmt.Errorf("declare notification exchange: %w", err)
	}

	r.rabbit = client
	return notify.Multi{logSender, producer}, nil
}

// Start seeds the roster, subscribes to the location bus (which opens the
// socket) and starts the proximity watch.
func (r *viewerRole) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		r.syncer.Run(runCtx)
	}()

	r.unsubscribe = r.bus.Subscribe(r.applyDelta)

	if err := r.watcher.Start(ctx); err != nil {
		r.log.Warn(wrap.ErrorCtx(ctx, err), "proximity watch not started", "error", err.Error())
	}

	return nil
}

func (r *viewerRole) applyDelta(delta models.LocationDelta) {
	r.store.Apply(delta)
	if delta.Remove {
		r.notifier.Forget(delta.VendorID)
	}
}

func (r *viewerRole) Stop(ctx context.Context) {
	r.mu.Lock()
	cancel, done, unsubscribe := r.cancel, r.done, r.unsubscribe
	r.cancel, r.done, r.unsubscribe = nil, nil, nil
	r.mu.Unlock()

	r.watcher.Stop()
	if unsubscribe != nil {
		unsubscribe()
	}
	r.bus.Disconnect()

	if cancel != nil {
		cancel()
		<-done
	}

	r.log.Debug(wrap.WithAction(ctx, types.ActionBusDisconnected), "viewer stopped")
}

func (r *viewerRole) Close(ctx context.Context) {
	if r.rabbit == nil {
		return
	}
	if err := r.rabbit.Close(ctx); err != nil {
		r.log.Warn(ctx, "Failed to close rabbitmq connection", "error", err.Error())
	}
	r.rabbit = nil
}
