package models

// Coordinate is a plain WGS84 point.
type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// VendorPosition is the last known position of one vendor.
// Lat/Lng are always written together.
type VendorPosition struct {
	VendorID int64   `json:"vendor_id"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Name     string  `json:"name,omitempty"`
}

// Coordinate returns the position as a Coordinate.
func (p VendorPosition) Coordinate() Coordinate {
	return Coordinate{Latitude: p.Lat, Longitude: p.Lng}
}

// LocationDelta is one incremental update pushed on /ws/locations.
// When Remove is true Lat/Lng are ignored.
type LocationDelta struct {
	VendorID int64   `json:"vendor_id"`
	Lat      float64 `json:"lat,omitempty"`
	Lng      float64 `json:"lng,omitempty"`
	Remove   bool    `json:"remove,omitempty"`
}

// VendorSummary is one item of GET /vendors/.
// Coordinates are nil for vendors that never shared a position.
type VendorSummary struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	CurrentLat *float64 `json:"current_lat"`
	CurrentLng *float64 `json:"current_lng"`
}

// Position converts the summary to a roster entry.
// ok is false when the vendor has no coordinates.
func (v VendorSummary) Position() (VendorPosition, bool) {
	if v.CurrentLat == nil || v.CurrentLng == nil {
		return VendorPosition{}, false
	}
	return VendorPosition{
		VendorID: v.ID,
		Lat:      *v.CurrentLat,
		Lng:      *v.CurrentLng,
		Name:     v.Name,
	}, true
}
