package app

import (
	"context"

	"github.com/Temutjin2k/vendor-location-sync/config"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
	"github.com/Temutjin2k/vendor-location-sync/internal/service/publisher"
	"github.com/Temutjin2k/vendor-location-sync/pkg/logger"
	wrap "github.com/Temutjin2k/vendor-location-sync/pkg/logger/wrapper"
)

// vendorRole shares this device's position while the vendor is on a route.
type vendorRole struct {
	publisher *publisher.Service
	vendorID  int64
	log       logger.Logger
}

func newVendorRole(
	cfg config.Config,
	perms publisher.PermissionRequester,
	source publisher.LocationSource,
	backend publisher.Backend,
	tokens publisher.TokenSource,
	flags publisher.FlagStore,
	log logger.Logger,
) *vendorRole {
	watchOpts := models.WatchOptions{
		Accuracy:         cfg.Publisher.Accuracy,
		Interval:         cfg.Publisher.Interval,
		DistanceInterval: cfg.Publisher.DistanceInterval,
	}

	return &vendorRole{
		publisher: publisher.New(perms, source, backend, tokens, flags, log,
			publisher.WithWatchOptions(watchOpts),
			publisher.WithCallTimeout(cfg.Publisher.CallTimeout),
		),
		vendorID: cfg.Publisher.VendorID,
		log:      log,
	}
}

// Start resumes a session that was active when the process last exited.
// A failed resume is logged; the vendor can still start from the API.
func (r *vendorRole) Start(ctx context.Context) error {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: types.ActionStartSharing, VendorID: r.vendorID})

	resumed, err := r.publisher.Resume(ctx, r.vendorID)
	if err != nil {
		r.log.Warn(wrap.ErrorCtx(ctx, err), "failed to resume location sharing", "error", err.Error())
		return nil
	}
	if resumed {
		r.log.Info(ctx, "location sharing resumed")
	}
	return nil
}

// Stop suspends the session so the next start resumes it, then waits for
// in-flight route calls.
func (r *vendorRole) Stop(ctx context.Context) {
	r.publisher.Suspend(ctx)
	r.publisher.Wait()
}
