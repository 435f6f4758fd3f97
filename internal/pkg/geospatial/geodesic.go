package geospatial

import (
	"math"

	"github.com/tidwall/geodesic"
)

// Meters per degree of latitude at the equator, the smallest value on WGS 84.
const minMetersPerDegreeLat = 110574.0

// Meters per degree of longitude at the equator.
const metersPerDegreeLngEquator = 111320.0

// Margin applied to box deltas so the box always contains the geodesic circle.
const boxMargin = 1.02

// Distance returns the geodesic distance in meters between two points on the WGS 84 ellipsoid.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	if lat1 == lat2 && lng1 == lng2 {
		return 0
	}
	var s12 float64
	geodesic.WGS84.Inverse(lat1, lng1, lat2, lng2, &s12, nil, nil)
	return s12
}

// Box is a latitude/longitude rectangle that never crosses the antimeridian.
type Box struct {
	MinLat, MinLng, MaxLat, MaxLng float64
}

// BoundingBoxes returns one or two boxes (split at the antimeridian) covering every point
// within radiusMeters of (lat, lng).
func BoundingBoxes(lat, lng, radiusMeters float64) []Box {
	latDelta := radiusMeters / minMetersPerDegreeLat * boxMargin
	minLat := math.Max(lat-latDelta, -90)
	maxLat := math.Min(lat+latDelta, 90)

	// Near a pole the circle covers every longitude.
	widest := math.Max(math.Abs(minLat), math.Abs(maxLat))
	if widest >= 89.999 {
		return []Box{{MinLat: minLat, MinLng: -180, MaxLat: maxLat, MaxLng: 180}}
	}

	lngDelta := radiusMeters / (metersPerDegreeLngEquator * math.Cos(toRad(widest))) * boxMargin
	if lngDelta >= 180 {
		return []Box{{MinLat: minLat, MinLng: -180, MaxLat: maxLat, MaxLng: 180}}
	}

	minLng, maxLng := lng-lngDelta, lng+lngDelta
	switch {
	case minLng < -180:
		return []Box{
			{MinLat: minLat, MinLng: -180, MaxLat: maxLat, MaxLng: maxLng},
			{MinLat: minLat, MinLng: minLng + 360, MaxLat: maxLat, MaxLng: 180},
		}
	case maxLng > 180:
		return []Box{
			{MinLat: minLat, MinLng: minLng, MaxLat: maxLat, MaxLng: 180},
			{MinLat: minLat, MinLng: -180, MaxLat: maxLat, MaxLng: maxLng - 360},
		}
	}
	return []Box{{MinLat: minLat, MinLng: minLng, MaxLat: maxLat, MaxLng: maxLng}}
}

// Contains reports whether the box contains the point.
func (b Box) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
