package proximity

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
	"github.com/Temutjin2k/vendor-location-sync/internal/service/geo"
	"github.com/Temutjin2k/vendor-location-sync/pkg/logger"
	wrap "github.com/Temutjin2k/vendor-location-sync/pkg/logger/wrapper"
	"github.com/Temutjin2k/vendor-location-sync/pkg/metrics"
)

const (
	NotificationTitle = "Vendedor próximo"
	defaultVendorName = "Vendedor"
)

// Notifier fires one notification each time a vendor crosses from outside
// to inside the radius around the user.
type Notifier struct {
	sender Sender
	now    func() time.Time
	l      logger.Logger

	mu     sync.Mutex
	inside map[int64]bool
}

func NewNotifier(sender Sender, l logger.Logger) *Notifier {
	return &Notifier{
		sender: sender,
		now:    time.Now,
		l:      l,
		inside: make(map[int64]bool),
	}
}

// Evaluate checks every considered vendor against the user's position.
// With enabled false nothing happens. An empty favoriteIDs means all
// vendors are considered. Vendors missing from vendors, or no longer
// considered, lose their inside state so a later entry fires again.
func (n *Notifier) Evaluate(ctx context.Context, user models.Coordinate, vendors []models.VendorPosition, radiusM float64, favoriteIDs []int64, enabled bool) {
	if !enabled || math.IsNaN(user.Latitude) || math.IsNaN(user.Longitude) {
		return
	}

	n.mu.Lock()
	pending := n.evaluateLocked(user, vendors, radiusM, favoriteIDs)
	n.mu.Unlock()

	for _, note := range pending {
		n.send(ctx, note)
	}
}

// EvaluateRoster is Evaluate over roster.Snapshot(), taken under the same
// lock as Forget. A removal forgotten before the snapshot cannot come back
// from a stale copy of the roster.
func (n *Notifier) EvaluateRoster(ctx context.Context, user models.Coordinate, roster RosterReader, radiusM float64, favoriteIDs []int64, enabled bool) {
	if !enabled || math.IsNaN(user.Latitude) || math.IsNaN(user.Longitude) {
		return
	}

	n.mu.Lock()
	pending := n.evaluateLocked(user, roster.Snapshot(), radiusM, favoriteIDs)
	n.mu.Unlock()

	for _, note := range pending {
		n.send(ctx, note)
	}
}

func (n *Notifier) evaluateLocked(user models.Coordinate, vendors []models.VendorPosition, radiusM float64, favoriteIDs []int64) []models.Notification {
	var favorites map[int64]struct{}
	if len(favoriteIDs) > 0 {
		favorites = make(map[int64]struct{}, len(favoriteIDs))
		for _, id := range favoriteIDs {
			favorites[id] = struct{}{}
		}
	}

	var pending []models.Notification
	considered := make(map[int64]struct{}, len(vendors))

	for _, v := range vendors {
		if favorites != nil {
			if _, ok := favorites[v.VendorID]; !ok {
				continue
			}
		}
		if math.IsNaN(v.Lat) || math.IsNaN(v.Lng) {
			continue
		}
		considered[v.VendorID] = struct{}{}

		dist := geo.DistanceMeters(user.Latitude, user.Longitude, v.Lat, v.Lng)
		if dist > radiusM {
			delete(n.inside, v.VendorID)
			continue
		}
		if n.inside[v.VendorID] {
			continue
		}
		n.inside[v.VendorID] = true
		pending = append(pending, n.notification(v, dist))
	}
	for id := range n.inside {
		if _, ok := considered[id]; !ok {
			delete(n.inside, id)
		}
	}
	return pending
}

// Forget clears the state of one vendor (e.g. it was removed from the roster).
func (n *Notifier) Forget(vendorID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.inside, vendorID)
}

func (n *Notifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	clear(n.inside)
}

// Inside reports whether the vendor is currently considered within radius.
func (n *Notifier) Inside(vendorID int64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.inside[vendorID]
}

func (n *Notifier) notification(v models.VendorPosition, dist float64) models.Notification {
	name := v.Name
	if name == "" {
		name = defaultVendorName
	}
	return models.Notification{
		Title:    NotificationTitle,
		Body:     fmt.Sprintf("%s está a %dm de si", name, int64(math.Round(dist))),
		VendorID: v.VendorID,
		Distance: dist,
		At:       n.now(),
	}
}

func (n *Notifier) send(ctx context.Context, note models.Notification) {
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{Action: types.ActionProximityNotify, VendorID: note.VendorID})

	err := n.sender.Notify(ctx, note)
	metrics.RecordNotification(err)
	if err != nil {
		n.l.Warn(ctx, "failed to schedule notification", "error", err.Error())
		return
	}
	n.l.Debug(ctx, "proximity notification sent", "distance_m", math.Round(note.Distance))
}
