package models

import (
	"time"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
	"github.com/google/uuid"
)

// LocationSharingSession is a read-only view of the publisher state machine.
type LocationSharingSession struct {
	ID        uuid.UUID           `json:"session_id"`
	VendorID  int64               `json:"vendor_id"`
	Status    types.SessionStatus `json:"status"`
	StartedAt time.Time           `json:"started_at"`
}
