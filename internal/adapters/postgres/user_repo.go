package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/placemap/internal/core/domain"
)

var userColumns = []string{
	"id", "username", "email", "password_hash", "display_name", "bio", "website",
	"avatar_url", "avatar_asset_id", "ST_AsText(location::geometry)",
	"followers", "following", "likes", "visits", "created_at", "updated_at",
}

// statColumns whitelists the counter columns IncrementStat may touch.
var statColumns = map[domain.StatCounter]string{
	domain.StatFollowers: "followers",
	domain.StatFollowing: "following",
	domain.StatLikes:     "likes",
	domain.StatVisits:    "visits",
}

// UserRepo implements ports.UserRepository with PostGIS.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

func pointExpr(p domain.GeoPoint) sq.Sqlizer {
	return sq.Expr("ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography", p.Lng, p.Lat)
}

// Insert stores a user; the location may be nil.
func (r *UserRepo) Insert(ctx context.Context, u *domain.User) (int64, error) {
	var location any
	if u.Location != nil {
		if err := u.Location.Validate(); err != nil {
			return 0, err
		}
		location = pointExpr(*u.Location)
	}

	query, args, err := psql.Insert("users").
		Columns("username", "email", "password_hash", "display_name", "location").
		Values(u.Username, u.Email, u.PasswordHash, u.DisplayName, location).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	if err := r.db.Pool.QueryRow(ctx, query, args...).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return 0, wrapErr("postgres.UserRepo.Insert", err)
	}
	return u.ID, nil
}

// Get returns nil, nil when the user does not exist.
func (r *UserRepo) Get(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, "postgres.UserRepo.Get", sq.Eq{"id": id})
}

// GetByLogin matches username or email case-insensitively.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	return r.getOne(ctx, "postgres.UserRepo.GetByLogin", sq.Or{
		sq.Expr("lower(username) = lower(?)", login),
		sq.Expr("lower(email) = lower(?)", login),
	})
}

func (r *UserRepo) getOne(ctx context.Context, op string, where sq.Sqlizer) (*domain.User, error) {
	query, args, err := psql.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	u, err := scanUser(r.db.Pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return u, nil
}

// Remove deletes a user; unknown ids are ignored.
func (r *UserRepo) Remove(ctx context.Context, id int64) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return wrapErr("postgres.UserRepo.Remove", err)
}

// UpdateCoordinate replaces the user's location.
func (r *UserRepo) UpdateCoordinate(ctx context.Context, id int64, p domain.GeoPoint) error {
	if err := p.Validate(); err != nil {
		return err
	}

	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE users
		SET location = ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, updated_at = now()
		WHERE id = $3
	`, p.Lng, p.Lat, id)
	if err != nil {
		return wrapErr("postgres.UserRepo.UpdateCoordinate", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// UpdateProfile applies the non-nil fields of upd and returns the updated user.
func (r *UserRepo) UpdateProfile(ctx context.Context, id int64, upd domain.ProfileUpdate) (*domain.User, error) {
	b := psql.Update("users").Set("updated_at", sq.Expr("now()"))
	if upd.DisplayName != nil {
		b = b.Set("display_name", *upd.DisplayName)
	}
	if upd.Bio != nil {
		b = b.Set("bio", *upd.Bio)
	}
	if upd.Website != nil {
		b = b.Set("website", *upd.Website)
	}
	if upd.Location != nil {
		if err := upd.Location.Validate(); err != nil {
			return nil, err
		}
		b = b.Set("location", pointExpr(*upd.Location))
	}

	query, args, err := b.Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}

	u, err := scanUser(r.db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, wrapErr("postgres.UserRepo.UpdateProfile", err)
	}
	return u, nil
}

// SetAvatar records the uploaded avatar's URL and asset id.
func (r *UserRepo) SetAvatar(ctx context.Context, id int64, asset domain.Asset) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE users SET avatar_url = $1, avatar_asset_id = $2, updated_at = now()
		WHERE id = $3
	`, asset.URL, asset.ID, id)
	if err != nil {
		return wrapErr("postgres.UserRepo.SetAvatar", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// IncrementStat adds delta to a counter in a single statement, clamping at zero.
func (r *UserRepo) IncrementStat(ctx context.Context, id int64, counter domain.StatCounter, delta int64) (*domain.UserStats, error) {
	col, ok := statColumns[counter]
	if !ok {
		return nil, fmt.Errorf("%w: unknown counter %q", domain.ErrInvalidInput, counter)
	}

	query, args, err := psql.Update("users").
		Set(col, sq.Expr("GREATEST("+col+" + ?, 0)", delta)).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING followers, following, likes, visits").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build increment: %w", err)
	}

	var s domain.UserStats
	if err := r.db.Pool.QueryRow(ctx, query, args...).Scan(&s.Followers, &s.Following, &s.Likes, &s.Visits); err != nil {
		return nil, wrapErr("postgres.UserRepo.IncrementStat", err)
	}
	return &s, nil
}

// Search matches username or display name with ILIKE, ordered by id.
func (r *UserRepo) Search(ctx context.Context, query string, offset, limit int) ([]domain.User, int, error) {
	pattern := "%" + escapeLike(query) + "%"
	where := sq.Or{
		sq.ILike{"username": pattern},
		sq.ILike{"display_name": pattern},
	}

	countSQL, countArgs, err := psql.Select("count(*)").From("users").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}
	var total int
	if err := r.db.Pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, wrapErr("postgres.UserRepo.Search", err)
	}
	if total == 0 || offset >= total {
		return []domain.User{}, total, nil
	}

	sel := psql.Select(userColumns...).From("users").Where(where).OrderBy("id").Offset(uint64(offset))
	if limit > 0 {
		sel = sel.Limit(uint64(limit))
	}
	selectSQL, args, err := sel.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build search: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, selectSQL, args...)
	if err != nil {
		return nil, 0, wrapErr("postgres.UserRepo.Search", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, wrapErr("postgres.UserRepo.Search", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, wrapErr("postgres.UserRepo.Search", err)
	}
	return users, total, nil
}

// QueryWithin returns located users within radiusMeters, nearest first.
func (r *UserRepo) QueryWithin(ctx context.Context, center domain.GeoPoint, radiusMeters float64, limit int) ([]domain.User, error) {
	if radiusMeters <= 0 {
		return []domain.User{}, nil
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+strings.Join(userColumns, ", ")+`,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance
		FROM users
		WHERE location IS NOT NULL
		  AND ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance, id
		LIMIT NULLIF($4::int, 0)
	`, center.Lng, center.Lat, radiusMeters, max(limit, 0))
	if err != nil {
		return nil, wrapErr("postgres.UserRepo.QueryWithin", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var d float64
		u, err := scanUser(rows, &d)
		if err != nil {
			return nil, wrapErr("postgres.UserRepo.QueryWithin", err)
		}
		u.Distance = &d
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("postgres.UserRepo.QueryWithin", err)
	}
	return users, nil
}

func scanUser(s scanner, extra ...any) (*domain.User, error) {
	var (
		u   domain.User
		wkt *string
	)
	dest := append([]any{
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Bio, &u.Website,
		&u.AvatarURL, &u.AvatarAssetID, &wkt,
		&u.Stats.Followers, &u.Stats.Following, &u.Stats.Likes, &u.Stats.Visits,
		&u.CreatedAt, &u.UpdatedAt,
	}, extra...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	if wkt != nil {
		loc, err := domain.ParseGeoPoint(*wkt)
		if err != nil {
			return nil, err
		}
		u.Location = &loc
	}
	return &u, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
