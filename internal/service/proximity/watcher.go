package proximity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
	"github.com/Temutjin2k/vendor-location-sync/pkg/logger"
	wrap "github.com/Temutjin2k/vendor-location-sync/pkg/logger/wrapper"
)

// DefaultWatchOptions: highest accuracy, a fix every 50 m.
var DefaultWatchOptions = models.WatchOptions{
	Accuracy:         "highest",
	DistanceInterval: 50,
}

// Watcher owns the viewer's position watch and runs the Notifier on every
// fix. It stays inert when notifications are disabled or a permission is
// denied; none of that is reported as an error.
type Watcher struct {
	notifier *Notifier
	perms    PermissionRequester
	source   LocationSource
	roster   RosterReader
	prefs    Preferences
	opts     models.WatchOptions
	l        logger.Logger

	mu   sync.Mutex
	stop func()
	gen  uint64
}

func NewWatcher(notifier *Notifier, perms PermissionRequester, source LocationSource, roster RosterReader, prefs Preferences, opts models.WatchOptions, l logger.Logger) *Watcher {
	return &Watcher{
		notifier: notifier,
		perms:    perms,
		source:   source,
		roster:   roster,
		prefs:    prefs,
		opts:     opts,
		l:        l,
	}
}

// Start opens the watch if it is not running yet. Only a failure to open
// the watch itself is returned.
func (w *Watcher) Start(ctx context.Context) error {
	const op = "ProximityWatcher.Start"
	ctx = wrap.WithAction(ctx, types.ActionProximityWatch)

	if w.Running() {
		return nil
	}

	settings, err := w.prefs.NotificationSettings(ctx)
	if err != nil {
		w.l.Warn(ctx, "failed to read notification settings, proximity alerts off", "error", err.Error())
		return nil
	}
	if !settings.Enabled {
		w.l.Info(ctx, "proximity notifications disabled")
		return nil
	}

	if ok, err := w.perms.RequestLocation(ctx); err != nil || !ok {
		w.l.Info(ctx, "location permission denied, proximity alerts off")
		return nil
	}
	if ok, err := w.perms.RequestNotifications(ctx); err != nil || !ok {
		w.l.Info(ctx, "notification permission denied, proximity alerts off")
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop != nil {
		return nil
	}

	w.gen++
	gen := w.gen
	stop, err := w.source.Watch(context.WithoutCancel(ctx), w.opts, func(fctx context.Context, u models.LocationUpdate) {
		w.handleUpdate(fctx, gen, u)
	})
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}
	w.stop = stop

	w.l.Info(ctx, "proximity watch started", "distance_interval_m", w.opts.DistanceInterval)
	return nil
}

// Stop closes the watch and forgets all proximity state. Idempotent.
func (w *Watcher) Stop() {
	w.mu.Lock()
	stop := w.stop
	w.stop = nil
	w.gen++
	w.mu.Unlock()

	if stop != nil {
		stop()
	}
	w.notifier.Reset()
}

// Refresh re-applies the current settings: starts the watch when alerts
// were turned on and stops it when they were turned off.
func (w *Watcher) Refresh(ctx context.Context) error {
	settings, err := w.prefs.NotificationSettings(ctx)
	if err != nil {
		return err
	}
	if !settings.Enabled {
		w.Stop()
		return nil
	}
	return w.Start(ctx)
}

func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stop != nil
}

func (w *Watcher) handleUpdate(ctx context.Context, gen uint64, u models.LocationUpdate) {
	w.mu.Lock()
	current := gen == w.gen && w.stop != nil
	w.mu.Unlock()
	if !current {
		return
	}

	ctx = wrap.WithAction(ctx, types.ActionProximityWatch)

	if u.Err != nil {
		if errors.Is(u.Err, types.ErrPermissionDenied) {
			w.l.Info(ctx, "location permission revoked, proximity alerts off")
			w.Stop()
			return
		}
		w.l.Warn(ctx, "proximity watch error", "error", u.Err.Error())
		return
	}

	settings, err := w.prefs.NotificationSettings(ctx)
	if err != nil {
		w.l.Warn(ctx, "failed to read notification settings", "error", err.Error())
		return
	}
	favorites, err := w.prefs.Favorites(ctx)
	if err != nil {
		w.l.Warn(ctx, "failed to read favorites", "error", err.Error())
		return
	}

	w.notifier.EvaluateRoster(ctx, u.Fix.Coordinate, w.roster, float64(settings.Radius), favorites, settings.Enabled)
}
