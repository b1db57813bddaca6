// Package geo provides the distance helpers used by event discovery.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMiles is the mean Earth radius used for every distance in the service.
const EarthRadiusMiles = 3958.8

// milesPerDegreeLat is the approximate length of one degree of latitude.
// The bounding box derived from it is only accurate at mid latitudes and
// degrades towards the poles, which is acceptable for a prefilter.
const milesPerDegreeLat = 69.0

// Box is a latitude/longitude rectangle in decimal degrees. Longitudes are
// kept in [-180, 180]; when MinLng > MaxLng the box crosses the
// antimeridian and covers [MinLng, 180] plus [-180, MaxLng].
type Box struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// Wraps reports whether the box crosses the antimeridian.
func (b Box) Wraps() bool { return b.MinLng > b.MaxLng }

// Contains reports whether the point lies inside the box (edges included).
func (b Box) Contains(lat, lng float64) bool {
	if lat < b.MinLat || lat > b.MaxLat {
		return false
	}
	if b.Wraps() {
		return lng >= b.MinLng || lng <= b.MaxLng
	}
	return lng >= b.MinLng && lng <= b.MaxLng
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// Haversine returns the great-circle distance in miles between two points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMiles * c
}

// BoundingBox returns a rectangle around the center that contains every
// point within radiusMiles. It over-includes the corners, so callers must
// confirm candidates with Haversine. A box that reaches a pole spans every
// longitude; one that crosses the antimeridian wraps (see Box).
func BoundingBox(lat, lng, radiusMiles float64) Box {
	latDelta := radiusMiles / milesPerDegreeLat
	b := Box{
		MinLat: math.Max(lat-latDelta, -90),
		MaxLat: math.Min(lat+latDelta, 90),
		MinLng: -180,
		MaxLng: 180,
	}
	if b.MinLat == -90 || b.MaxLat == 90 {
		return b
	}
	lngDelta := radiusMiles / (milesPerDegreeLat * math.Cos(toRad(lat)))
	if lngDelta >= 180 {
		return b
	}
	b.MinLng = normalizeLng(lng - lngDelta)
	b.MaxLng = normalizeLng(lng + lngDelta)
	return b
}

// normalizeLng folds a longitude into [-180, 180]. Values already in range
// are returned unchanged.
func normalizeLng(lng float64) float64 {
	if lng >= -180 && lng <= 180 {
		return lng
	}
	lng = math.Mod(lng+180, 360)
	if lng < 0 {
		lng += 360
	}
	return lng - 180
}

// FormatDistance renders a distance for display.
func FormatDistance(miles float64) string {
	if miles < 0.1 {
		return "< 0.1 mi"
	}
	return fmt.Sprintf("~%.1f mi", miles)
}
