package location

import (
	"context"
	"sync"
	"time"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
	"github.com/Temutjin2k/vendor-location-sync/internal/service/geo"
	"github.com/Temutjin2k/vendor-location-sync/pkg/logger"
	wrap "github.com/Temutjin2k/vendor-location-sync/pkg/logger/wrapper"
)

type Config struct {
	Waypoints []models.Coordinate
	// walking speed in meters per second
	Speed float64
	// sampling period used when a watch asks for no interval
	Tick time.Duration
	Loop bool
	// reported accuracy of every fix
	Accuracy float64
}

// Simulator is a device location service that walks a fixed route. All
// watches observe the same device position; each watch has its own
// interval and distance filter.
type Simulator struct {
	route    *route
	speed    float64
	tick     time.Duration
	accuracy float64
	perms    *Permissions
	started  time.Time
	now      func() time.Time
	l        logger.Logger
}

func NewSimulator(cfg Config, perms *Permissions, l logger.Logger) *Simulator {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	if cfg.Accuracy <= 0 {
		cfg.Accuracy = 5
	}
	return &Simulator{
		route:    newRoute(cfg.Waypoints, cfg.Loop),
		speed:    cfg.Speed,
		tick:     cfg.Tick,
		accuracy: cfg.Accuracy,
		perms:    perms,
		started:  time.Now(),
		now:      time.Now,
		l:        l,
	}
}

// Position is where the device is right now.
func (s *Simulator) Position() models.Coordinate {
	elapsed := s.now().Sub(s.started).Seconds()
	return s.route.at(elapsed * s.speed)
}

// Watch delivers a fix right away and then every interval once the device
// moved at least opts.DistanceInterval meters since the last delivered fix.
// If location permission is withdrawn the handler gets one update carrying
// types.ErrPermissionDenied and the watch ends.
func (s *Simulator) Watch(ctx context.Context, opts models.WatchOptions, handler func(context.Context, models.LocationUpdate)) (func(), error) {
	if ok, _ := s.perms.RequestLocation(ctx); !ok {
		return nil, types.ErrPermissionDenied
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = s.tick
	}

	done := make(chan struct{})
	var once sync.Once
	stop := func() { once.Do(func() { close(done) }) }

	go s.run(ctx, interval, opts.DistanceInterval, handler, done)

	s.l.Debug(wrap.WithAction(ctx, "location_watch_started"), "simulated watch started",
		"interval", interval.String(), "distance_interval_m", opts.DistanceInterval, "accuracy", opts.Accuracy)

	return stop, nil
}

func (s *Simulator) run(ctx context.Context, interval time.Duration, minDistance float64, handler func(context.Context, models.LocationUpdate), done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		last    models.Coordinate
		hasLast bool
	)

	sample := func() bool {
		select {
		case <-done:
			return false
		default:
		}

		if ok, _ := s.perms.RequestLocation(ctx); !ok {
			handler(ctx, models.LocationUpdate{Err: types.ErrPermissionDenied})
			return false
		}

		pos := s.Position()
		if hasLast && geo.DistanceMeters(last.Latitude, last.Longitude, pos.Latitude, pos.Longitude) < minDistance {
			return true
		}
		last, hasLast = pos, true

		handler(ctx, models.LocationUpdate{Fix: models.Fix{
			Coordinate:     pos,
			AccuracyMeters: s.accuracy,
			At:             s.now(),
		}})
		return true
	}

	if !sample() {
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !sample() {
				return
			}
		}
	}
}
