package proximity

import (
	"context"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
)

// Sender delivers a local notification.
type Sender interface {
	Notify(ctx context.Context, n models.Notification) error
}

type PermissionRequester interface {
	RequestLocation(ctx context.Context) (bool, error)
	RequestNotifications(ctx context.Context) (bool, error)
}

// LocationSource starts a position watch independent of any other watch on
// the device. stop is idempotent and safe to call from inside handler.
type LocationSource interface {
	Watch(ctx context.Context, opts models.WatchOptions, handler func(context.Context, models.LocationUpdate)) (stop func(), err error)
}

type RosterReader interface {
	Snapshot() []models.VendorPosition
}

type Preferences interface {
	Favorites(ctx context.Context) ([]int64, error)
	NotificationSettings(ctx context.Context) (models.NotificationSettings, error)
}
