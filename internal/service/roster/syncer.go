package roster

import (
	"context"
	"fmt"
	"time"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
	"github.com/Temutjin2k/vendor-location-sync/pkg/logger"
	wrap "github.com/Temutjin2k/vendor-location-sync/pkg/logger/wrapper"
)

// VendorLister fetches the full active-vendor list (GET /vendors/).
type VendorLister interface {
	ListVendors(ctx context.Context) ([]models.VendorSummary, error)
}

// Syncer keeps the Store seeded from REST: once at start, then every
// interval and whenever Trigger is called (e.g. after a bus reconnect).
type Syncer struct {
	store    *Store
	lister   VendorLister
	interval time.Duration
	trigger  chan struct{}
	l        logger.Logger
}

func NewSyncer(store *Store, lister VendorLister, interval time.Duration, l logger.Logger) *Syncer {
	return &Syncer{
		store:    store,
		lister:   lister,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		l:        l,
	}
}

// Reseed fetches the vendor list once and replaces the roster. Vendors
// without coordinates are left out.
func (s *Syncer) Reseed(ctx context.Context) error {
	const op = "Syncer.Reseed"
	ctx = wrap.WithAction(ctx, types.ActionRosterSeed)

	vendors, err := s.lister.ListVendors(ctx)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	list := make([]models.VendorPosition, 0, len(vendors))
	for _, v := range vendors {
		if pos, ok := v.Position(); ok {
			list = append(list, pos)
		}
	}

	s.store.Seed(list)
	s.l.Debug(ctx, "roster seeded", "vendors", len(list), "fetched", len(vendors))

	return nil
}

// Trigger asks the run loop for an immediate re-seed. Never blocks.
func (s *Syncer) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run re-seeds until ctx is done. Failures are logged; the roster keeps its
// last content until the next successful fetch.
func (s *Syncer) Run(ctx context.Context) {
	s.reseedLogged(ctx)

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			s.reseedLogged(ctx)
		case <-s.trigger:
			s.reseedLogged(ctx)
		}
	}
}

func (s *Syncer) reseedLogged(ctx context.Context) {
	if err := s.Reseed(ctx); err != nil && ctx.Err() == nil {
		s.l.Warn(wrap.ErrorCtx(ctx, err), "failed to fetch vendors", "error", err.Error())
	}
}
