package bus

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
)

type wireDelta struct {
	VendorID *int64   `json:"vendor_id"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Remove   bool     `json:"remove"`
}

// decodeDelta parses one push frame. A frame without vendor_id, or an
// upsert without both coordinates, is malformed.
func decodeDelta(data []byte) (models.LocationDelta, error) {
	var w wireDelta
	if err := json.Unmarshal(data, &w); err != nil {
		return models.LocationDelta{}, fmt.Errorf("%w: %v", types.ErrMalformedMessage, err)
	}

	if w.VendorID == nil {
		return models.LocationDelta{}, fmt.Errorf("%w: missing vendor_id", types.ErrMalformedMessage)
	}

	d := models.LocationDelta{
		VendorID: *w.VendorID,
		Remove:   w.Remove,
	}
	if w.Remove {
		return d, nil
	}

	if w.Lat == nil || w.Lng == nil {
		return models.LocationDelta{}, fmt.Errorf("%w: vendor %d has no coordinates", types.ErrMalformedMessage, d.VendorID)
	}
	d.Lat, d.Lng = *w.Lat, *w.Lng

	return d, nil
}
