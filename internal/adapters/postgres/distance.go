package postgres

import (
	"context"

	"github.com/samirrijal/placemap/internal/core/domain"
)

// DistanceCalculator asks PostGIS for the spheroidal distance between two points,
// so distances match what ST_DWithin filters on.
type DistanceCalculator struct {
	db *DB
}

// NewDistanceCalculator creates a new DistanceCalculator.
func NewDistanceCalculator(db *DB) *DistanceCalculator {
	return &DistanceCalculator{db: db}
}

// Distance implements ports.DistanceCalculator.
func (c *DistanceCalculator) Distance(ctx context.Context, a, b domain.GeoPoint) (float64, error) {
	var d float64
	err := c.db.Pool.QueryRow(ctx, `
		SELECT ST_Distance(
			ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
			ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography,
			true
		)
	`, a.Lng, a.Lat, b.Lng, b.Lat).Scan(&d)
	if err != nil {
		return 0, wrapErr("postgres.DistanceCalculator.Distance", err)
	}
	return d, nil
}
