package geospatial_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/placemap/internal/pkg/geospatial"
)

type pt struct{ lat, lng float64 }

func randomPoint(r *rand.Rand) pt {
	return pt{lat: r.Float64()*180 - 90, lng: r.Float64()*360 - 180}
}

func TestDistance_SamePointIsZero(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		p := randomPoint(r)
		assert.InDelta(t, 0, geospatial.Distance(p.lat, p.lng, p.lat, p.lng), 1e-9)
	}
}

func TestDistance_Symmetric(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		a, b := randomPoint(r), randomPoint(r)
		ab := geospatial.Distance(a.lat, a.lng, b.lat, b.lng)
		ba := geospatial.Distance(b.lat, b.lng, a.lat, a.lng)
		assert.InDelta(t, ab, ba, 1e-6, "a=%v b=%v", a, b)
	}
}

func TestDistance_TriangleInequality(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		a, b, c := randomPoint(r), randomPoint(r), randomPoint(r)
		ac := geospatial.Distance(a.lat, a.lng, c.lat, c.lng)
		ab := geospatial.Distance(a.lat, a.lng, b.lat, b.lng)
		bc := geospatial.Distance(b.lat, b.lng, c.lat, c.lng)
		assert.LessOrEqual(t, ac, ab+bc+1e-6)
	}
}

func TestDistance_Cairo(t *testing.T) {
	d := geospatial.Distance(30.033333, 31.233334, 30.050000, 31.245000)
	// ~2.15 km on the ellipsoid
	require.Greater(t, d, 2000.0)
	require.Less(t, d, 2300.0)
}

func TestDistance_Ellipsoidal(t *testing.T) {
	// One degree of latitude at the equator is 110574 m on WGS 84, not the spherical 111195 m.
	d := geospatial.Distance(0, 0, 1, 0)
	assert.InDelta(t, 110574.4, d, 2)
}

func TestBoundingBoxes_ContainCircle(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	for i := 0; i < 300; i++ {
		c := randomPoint(r)
		radius := r.Float64() * 200000
		boxes := geospatial.BoundingBoxes(c.lat, c.lng, radius)

		// Sample points inside the radius and check one of the boxes covers them.
		for j := 0; j < 20; j++ {
			p := pt{lat: c.lat + (r.Float64()*2-1)*3, lng: c.lng + (r.Float64()*2-1)*3}
			if p.lat > 90 || p.lat < -90 {
				continue
			}
			if p.lng > 180 {
				p.lng -= 360
			} else if p.lng < -180 {
				p.lng += 360
			}
			if geospatial.Distance(c.lat, c.lng, p.lat, p.lng) > radius {
				continue
			}
			covered := false
			for _, b := range boxes {
				if b.Contains(p.lat, p.lng) {
					covered = true
					break
				}
			}
			assert.True(t, covered, "center=%v radius=%.0f point=%v boxes=%v", c, radius, p, boxes)
		}
	}
}

func TestBoundingBoxes_SplitsAtAntimeridian(t *testing.T) {
	boxes := geospatial.BoundingBoxes(0, 179.99, 5000)
	require.Len(t, boxes, 2)
	assert.True(t, boxes[1].Contains(0, -179.99))
}

func TestBoundingBoxes_Pole(t *testing.T) {
	boxes := geospatial.BoundingBoxes(89.99, 0, 5000)
	require.Len(t, boxes, 1)
	assert.Equal(t, -180.0, boxes[0].MinLng)
	assert.Equal(t, 180.0, boxes[0].MaxLng)
}
