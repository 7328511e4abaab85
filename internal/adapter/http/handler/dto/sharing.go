package dto

import (
	"time"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/pkg/validator"
)

type StartSharingRequest struct {
	VendorID int64 `json:"vendor_id"`
}

func (r *StartSharingRequest) Validate(v *validator.Validator) {
	v.Check(r.VendorID > 0, "vendor_id", "must be a positive integer")
}

type SessionResponse struct {
	Status    string     `json:"status"`
	VendorID  int64      `json:"vendor_id,omitempty"`
	SessionID string     `json:"session_id,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	// Persisted is the stored sharing intent, which survives restarts
	Persisted bool `json:"persisted"`
}

func NewSessionResponse(s models.LocationSharingSession, persisted bool) SessionResponse {
	resp := SessionResponse{
		Status:    s.Status.String(),
		VendorID:  s.VendorID,
		Persisted: persisted,
	}
	if s.Status.Active() && !s.StartedAt.IsZero() {
		started := s.StartedAt
		resp.SessionID = s.ID.String()
		resp.StartedAt = &started
	}
	return resp
}
