package roster

import (
	"slices"
	"sync"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/pkg/metrics"
)

/*
Store is the client-side cache of every vendor's last known position.

Deltas are applied last-write-wins with no ordering guard: a delta delivered
twice converges to the same roster, and the periodic full re-seed repairs
anything lost across a reconnect.
*/
type Store struct {
	mu      sync.RWMutex
	vendors map[int64]models.VendorPosition
}

func NewStore() *Store {
	return &Store{
		vendors: make(map[int64]models.VendorPosition),
	}
}

// Seed replaces the whole roster with list. It is not a merge.
func (s *Store) Seed(list []models.VendorPosition) {
	vendors := make(map[int64]models.VendorPosition, len(list))
	for _, v := range list {
		vendors[v.VendorID] = v
	}

	s.mu.Lock()
	s.vendors = vendors
	s.mu.Unlock()

	metrics.RosterVendors.Set(float64(len(vendors)))
}

// Apply merges one delta. Removal of an absent vendor is a no-op; an upsert
// keeps the name learned from the last seed.
func (s *Store) Apply(delta models.LocationDelta) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if delta.Remove {
		delete(s.vendors, delta.VendorID)
	} else {
		current := s.vendors[delta.VendorID]
		s.vendors[delta.VendorID] = models.VendorPosition{
			VendorID: delta.VendorID,
			Lat:      delta.Lat,
			Lng:      delta.Lng,
			Name:     current.Name,
		}
	}

	metrics.RosterVendors.Set(float64(len(s.vendors)))
}

// Snapshot returns a copy of the roster. Entries are sorted by vendor id
// but callers should sort/filter for themselves.
func (s *Store) Snapshot() []models.VendorPosition {
	s.mu.RLock()
	list := make([]models.VendorPosition, 0, len(s.vendors))
	for _, v := range s.vendors {
		list = append(list, v)
	}
	s.mu.RUnlock()

	slices.SortFunc(list, func(a, b models.VendorPosition) int {
		switch {
		case a.VendorID < b.VendorID:
			return -1
		case a.VendorID > b.VendorID:
			return 1
		}
		return 0
	})
	return list
}

// Get returns the position of one vendor.
func (s *Store) Get(vendorID int64) (models.VendorPosition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.vendors[vendorID]
	return v, ok
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vendors)
}
