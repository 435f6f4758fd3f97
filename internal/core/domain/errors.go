package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrMissingCoordinate = errors.New("missing coordinate")
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrUnavailable       = errors.New("unavailable")
)

// InfrastructureError wraps a storage or transport fault that is not a domain outcome.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error { return e.Err }

// Infrastructure wraps err as an InfrastructureError, or returns nil.
func Infrastructure(op string, err error) error {
	if err == nil {
		return nil
	}
	return &InfrastructureError{Op: op, Err: err}
}

// IsInfrastructure reports whether err carries an InfrastructureError.
func IsInfrastructure(err error) bool {
	var ie *InfrastructureError
	return errors.As(err, &ie)
}
