package dto

import (
	"math"
	"net/url"
	"strconv"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/pkg/validator"
)

type VendorResponse struct {
	VendorID int64    `json:"vendor_id"`
	Name     string   `json:"name,omitempty"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Distance *float64 `json:"distance_m,omitempty"`
	Nearby   *bool    `json:"nearby,omitempty"`
}

func NewVendorResponse(p models.VendorPosition) VendorResponse {
	return VendorResponse{VendorID: p.VendorID, Name: p.Name, Lat: p.Lat, Lng: p.Lng}
}

// NearQuery is the optional ?lat=&lng=&radius= filter of GET /roster.
type NearQuery struct {
	Set    bool
	Origin models.Coordinate
	Radius float64
}

func ParseNearQuery(q url.Values, v *validator.Validator) NearQuery {
	lat, lng, radius := q.Get("lat"), q.Get("lng"), q.Get("radius")
	if lat == "" && lng == "" && radius == "" {
		return NearQuery{}
	}

	var n NearQuery
	n.Set = true
	n.Origin.Latitude = parseFloat(v, "lat", lat)
	n.Origin.Longitude = parseFloat(v, "lng", lng)
	n.Radius = math.Inf(1)
	if radius != "" {
		n.Radius = parseFloat(v, "radius", radius)
		v.Check(n.Radius > 0, "radius", "must be greater than zero")
	}

	v.Check(n.Origin.Latitude >= -90 && n.Origin.Latitude <= 90, "lat", "must be between -90 and 90")
	v.Check(n.Origin.Longitude >= -180 && n.Origin.Longitude <= 180, "lng", "must be between -180 and 180")
	return n
}

func parseFloat(v *validator.Validator, key, s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		v.AddError(key, "must be a number")
		return 0
	}
	return f
}
