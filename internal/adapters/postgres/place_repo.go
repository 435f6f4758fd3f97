package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/placemap/internal/core/domain"
)

const placeColumns = `id, name, description, ST_AsText(location::geometry), created_at`

// scanner is satisfied by pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// PlaceRepo implements ports.PlaceRepository with PostGIS.
type PlaceRepo struct {
	db *DB
}

// NewPlaceRepo creates a new PlaceRepo.
func NewPlaceRepo(db *DB) *PlaceRepo {
	return &PlaceRepo{db: db}
}

// Insert stores a place and sets its id and creation time.
func (r *PlaceRepo) Insert(ctx context.Context, p *domain.Place) (int64, error) {
	if err := p.Location.Validate(); err != nil {
		return 0, err
	}

	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO places (name, description, location)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography)
		RETURNING id, created_at
	`, p.Name, p.Description, p.Location.Lng, p.Location.Lat).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return 0, wrapErr("postgres.PlaceRepo.Insert", err)
	}
	return p.ID, nil
}

// Get returns nil, nil when the place does not exist.
func (r *PlaceRepo) Get(ctx context.Context, id int64) (*domain.Place, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+placeColumns+` FROM places WHERE id = $1`, id)
	p, err := scanPlace(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("postgres.PlaceRepo.Get", err)
	}
	return p, nil
}

// Remove deletes a place; unknown ids are ignored.
func (r *PlaceRepo) Remove(ctx context.Context, id int64) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM places WHERE id = $1`, id)
	return wrapErr("postgres.PlaceRepo.Remove", err)
}

// QueryWithin returns places within radiusMeters using ST_DWithin on the geography column.
func (r *PlaceRepo) QueryWithin(ctx context.Context, center domain.GeoPoint, radiusMeters float64, limit int) ([]domain.Place, error) {
	if radiusMeters <= 0 {
		return []domain.Place{}, nil
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+placeColumns+`,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance
		FROM places
		WHERE ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance, id
		LIMIT NULLIF($4::int, 0)
	`, center.Lng, center.Lat, radiusMeters, max(limit, 0))
	if err != nil {
		return nil, wrapErr("postgres.PlaceRepo.QueryWithin", err)
	}
	defer rows.Close()

	places := []domain.Place{}
	for rows.Next() {
		var d float64
		p, err := scanPlace(rows, &d)
		if err != nil {
			return nil, wrapErr("postgres.PlaceRepo.QueryWithin", err)
		}
		p.Distance = &d
		places = append(places, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("postgres.PlaceRepo.QueryWithin", err)
	}
	return places, nil
}

func scanPlace(s scanner, extra ...any) (*domain.Place, error) {
	var (
		p   domain.Place
		wkt string
	)
	dest := append([]any{&p.ID, &p.Name, &p.Description, &wkt, &p.CreatedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	loc, err := domain.ParseGeoPoint(wkt)
	if err != nil {
		return nil, err
	}
	p.Location = loc
	return &p, nil
}
