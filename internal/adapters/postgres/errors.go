package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/samirrijal/placemap/internal/core/domain"
)

// wrapErr maps driver errors onto domain errors. Anything that is not a
// domain outcome becomes an InfrastructureError.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w: %s", op, domain.ErrConflict, conflictDetail(pgErr))
		case "23503", "23514", "22P02", "22003":
			return fmt.Errorf("%s: %w: %s", op, domain.ErrInvalidInput, pgErr.Message)
		}
	}
	return domain.Infrastructure(op, err)
}

func conflictDetail(pgErr *pgconn.PgError) string {
	switch pgErr.ConstraintName {
	case "users_username_key":
		return "username already taken"
	case "users_email_key":
		return "email already registered"
	}
	return pgErr.Message
}
