package location

import (
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	"github.com/Temutjin2k/vendor-location-sync/internal/service/geo"
)

type leg struct {
	from, to s2.Point
	meters   float64
}

// route is a polyline walked at constant speed along great circles.
type route struct {
	legs  []leg
	total float64
	start models.Coordinate
	loop  bool
}

func toPoint(c models.Coordinate) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(c.Latitude, c.Longitude))
}

func newRoute(waypoints []models.Coordinate, loop bool) *route {
	r := &route{loop: loop}
	if len(waypoints) == 0 {
		return r
	}
	r.start = waypoints[0]

	points := waypoints
	if loop && len(waypoints) > 1 {
		points = append(append([]models.Coordinate{}, waypoints...), waypoints[0])
	}

	for i := 1; i < len(points); i++ {
		from, to := toPoint(points[i-1]), toPoint(points[i])
		angle := s1.Angle(s2.ChordAngleBetweenPoints(from, to).Angle())
		meters := angle.Radians() * geo.EarthRadiusMeters
		if meters == 0 {
			continue
		}
		r.legs = append(r.legs, leg{from: from, to: to, meters: meters})
		r.total += meters
	}
	return r
}

// at returns the position after walking meters from the start. Past the
// end the walker stays at the last waypoint, or starts over when looping.
func (r *route) at(meters float64) models.Coordinate {
	if len(r.legs) == 0 || meters <= 0 {
		return r.start
	}

	if meters >= r.total {
		if !r.loop {
			last := s2.LatLngFromPoint(r.legs[len(r.legs)-1].to)
			return models.Coordinate{Latitude: last.Lat.Degrees(), Longitude: last.Lng.Degrees()}
		}
		meters = math.Mod(meters, r.total)
	}

	for _, l := range r.legs {
		if meters > l.meters {
			meters -= l.meters
			continue
		}
		p := s2.Interpolate(meters/l.meters, l.from, l.to)
		ll := s2.LatLngFromPoint(p)
		return models.Coordinate{Latitude: ll.Lat.Degrees(), Longitude: ll.Lng.Degrees()}
	}

	return r.start
}
