package memory

import (
	"github.com/dhconnelly/rtreego"

	"github.com/samirrijal/placemap/internal/core/domain"
	"github.com/samirrijal/placemap/internal/pkg/geospatial"
)

const pointTolerance = 1e-9

// indexed is a point entry in the R-tree; x is longitude, y is latitude.
type indexed struct {
	id    int64
	point domain.GeoPoint
}

func (e *indexed) Bounds() rtreego.Rect {
	return rtreego.Point{e.point.Lng, e.point.Lat}.ToRect(pointTolerance)
}

type hit struct {
	id       int64
	distance float64
}

// index maps entity ids to R-tree entries. Not safe for concurrent use on its own.
type index struct {
	tree  *rtreego.Rtree
	items map[int64]*indexed
}

func newIndex() *index {
	return &index{
		tree:  rtreego.NewTree(2, 25, 50),
		items: make(map[int64]*indexed),
	}
}

func (ix *index) put(id int64, p domain.GeoPoint) {
	ix.remove(id)
	e := &indexed{id: id, point: p}
	ix.tree.Insert(e)
	ix.items[id] = e
}

func (ix *index) remove(id int64) {
	if e, ok := ix.items[id]; ok {
		ix.tree.Delete(e)
		delete(ix.items, id)
	}
}

// within returns every entry whose geodesic distance to center is <= radiusMeters.
func (ix *index) within(center domain.GeoPoint, radiusMeters float64) ([]hit, error) {
	if radiusMeters <= 0 {
		return nil, nil
	}

	seen := make(map[int64]struct{})
	var hits []hit
	for _, b := range geospatial.BoundingBoxes(center.Lat, center.Lng, radiusMeters) {
		rect, err := rtreego.NewRectFromPoints(
			rtreego.Point{b.MinLng, b.MinLat},
			rtreego.Point{b.MaxLng, b.MaxLat},
		)
		if err != nil {
			return nil, err
		}
		for _, s := range ix.tree.SearchIntersect(rect) {
			e := s.(*indexed)
			// Entry rects are padded by pointTolerance.
			if !b.Contains(e.point.Lat, e.point.Lng) {
				continue
			}
			if _, dup := seen[e.id]; dup {
				continue
			}
			seen[e.id] = struct{}{}

			d := geospatial.Distance(center.Lat, center.Lng, e.point.Lat, e.point.Lng)
			if d <= radiusMeters {
				hits = append(hits, hit{id: e.id, distance: d})
			}
		}
	}
	return hits, nil
}
