package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/placemap/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Error     string `json:"error"` // Human-readable message
	Code      string `json:"code"`  // bad_request, invalid_coordinate, not_found, internal_error, ...
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Error:     message,
		Code:      code,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errUnauthorized returns a 401 error.
func errUnauthorized(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusUnauthorized, "unauthorized", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// respondError maps a service error onto a status code. Infrastructure faults are
// logged and reported without their details.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidCoordinate):
		return newError(c, fiber.StatusBadRequest, "invalid_coordinate", err.Error())
	case errors.Is(err, domain.ErrMissingCoordinate):
		return newError(c, fiber.StatusBadRequest, "missing_coordinate", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return errUnauthorized(c, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return newError(c, fiber.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrConflict):
		return newError(c, fiber.StatusConflict, "conflict", err.Error())
	case errors.Is(err, domain.ErrUnavailable):
		return newError(c, fiber.StatusServiceUnavailable, "unavailable", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return newError(c, fiber.StatusRequestTimeout, "timeout", "request timed out")
	}

	LoggerFromCtx(c.UserContext()).Error("request failed",
		"method", c.Method(),
		"path", c.Path(),
		"error", err,
	)
	return errInternal(c, "internal error")
}
