package dto

import (
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/pkg/validator"
)

// UpdateSettingsRequest is a partial update: absent fields keep their value.
type UpdateSettingsRequest struct {
	Enabled *bool `json:"enabled"`
	Radius  *int  `json:"radius"`
}

func (r *UpdateSettingsRequest) Validate(v *validator.Validator) {
	v.Check(r.Enabled != nil || r.Radius != nil, "body", "enabled or radius must be provided")
	if r.Radius != nil {
		v.Check(*r.Radius > 0, "radius", "must be greater than zero")
		v.Check(*r.Radius <= 50_000, "radius", "must not be more than 50000 meters")
	}
}

// Apply merges the request over the current settings.
func (r *UpdateSettingsRequest) Apply(cur models.NotificationSettings) models.NotificationSettings {
	if r.Enabled != nil {
		cur.Enabled = *r.Enabled
	}
	if r.Radius != nil {
		cur.Radius = *r.Radius
	}
	return cur
}
