package http

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/placemap/internal/core/domain"
)

// queryFloat parses an optional finite number; def is used when the parameter is absent.
func queryFloat(c *fiber.Ctx, name string, def float64) (float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s must be a number, got %q", domain.ErrInvalidInput, name, raw)
	}
	return v, nil
}

// queryInt parses an optional non-negative integer.
func queryInt(c *fiber.Ctx, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %q", domain.ErrInvalidInput, name, raw)
	}
	return v, nil
}

// queryPoint reads a mandatory coordinate from two query parameters.
func queryPoint(c *fiber.Ctx, latName, lngName string) (domain.GeoPoint, error) {
	p, err := domain.ParseCoordinatePair(c.Query(latName), c.Query(lngName))
	if err != nil {
		return domain.GeoPoint{}, err
	}
	if p == nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: %s and %s are required", domain.ErrMissingCoordinate, latName, lngName)
	}
	return *p, nil
}

// paramID reads a positive numeric path id.
func paramID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", domain.ErrInvalidInput, raw)
	}
	return id, nil
}
