package spatial

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
	EarthRadiusKm     = 6371.0    // Earth's mean radius in kilometers
)

// HaversineDistance calculates the great-circle distance between two points in meters
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	return DistanceKm(lat1, lon1, lat2, lon2) * 1000
}

// DistanceKm calculates the great-circle distance between two points in kilometers
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// Radius is a spherical cap around a query point
type Radius struct {
	cap s2.Cap
}

// NewRadius builds a cap of radiusKm around (lat, lon)
func NewRadius(lat, lon, radiusKm float64) Radius {
	center := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
	angle := s1.Angle(radiusKm / EarthRadiusKm)
	return Radius{cap: s2.CapFromCenterAngle(center, angle)}
}

// Contains reports whether (lat, lon) lies inside the cap
func (r Radius) Contains(lat, lon float64) bool {
	return r.cap.ContainsPoint(s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon)))
}

// Bounds is a lat/lon box enclosing a Radius, usable as a cheap SQL prefilter
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
	// WrapsLon is set when the box crosses the antimeridian or spans every longitude;
	// the longitude range should not be used for filtering then.
	WrapsLon bool
}

// Bounds returns the enclosing lat/lon box of the cap
func (r Radius) Bounds() Bounds {
	rect := r.cap.RectBound()
	lo, hi := rect.Lo(), rect.Hi()
	return Bounds{
		MinLat:   lo.Lat.Degrees(),
		MaxLat:   hi.Lat.Degrees(),
		MinLon:   lo.Lng.Degrees(),
		MaxLon:   hi.Lng.Degrees(),
		WrapsLon: rect.Lng.IsInverted() || rect.Lng.IsFull(),
	}
}
