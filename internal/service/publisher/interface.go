package publisher

import (
	"context"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
)

type PermissionRequester interface {
	// RequestLocation asks for foreground location permission.
	RequestLocation(ctx context.Context) (bool, error)
}

// LocationSource starts a continuous position watch. The returned stop func
// is idempotent and safe to call from inside handler.
type LocationSource interface {
	Watch(ctx context.Context, opts models.WatchOptions, handler func(context.Context, models.LocationUpdate)) (stop func(), err error)
}

type Backend interface {
	StartRoute(ctx context.Context, vendorID int64, token string) error
	StopRoute(ctx context.Context, vendorID int64, token string) error
	PushLocation(ctx context.Context, vendorID int64, token string, pos models.Coordinate) error
}

type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// FlagStore persists the "sharing active" intent across restarts.
type FlagStore interface {
	SharingFlag(ctx context.Context) (bool, error)
	SetSharingFlag(ctx context.Context, active bool) error
}
