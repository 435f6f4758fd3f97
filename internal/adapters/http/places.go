package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/placemap/internal/core/domain"
	"github.com/samirrijal/placemap/internal/core/usecases"
)

const defaultPlaceRadius = 5000.0

type createPlaceRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// CreatePlaceHandler stores a new place. The coordinate is mandatory.
// POST /places
func CreatePlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createPlaceRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		loc, err := domain.OptionalGeoPoint(req.Latitude, req.Longitude)
		if err != nil {
			return respondError(c, err)
		}

		place, err := deps.Places.Create(c.UserContext(), usecases.CreatePlaceInput{
			Name:        req.Name,
			Description: req.Description,
			Location:    loc,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(place)
	}
}

// GetPlaceHandler returns a single place.
// GET /places/:id
func GetPlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return respondError(c, err)
		}
		place, err := deps.Places.Get(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(place)
	}
}

// DeletePlaceHandler removes a place.
// DELETE /places/:id
func DeletePlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return respondError(c, err)
		}
		if err := deps.Places.Delete(c.UserContext(), id); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// NearbyPlacesHandler lists places within a radius, nearest first.
// GET /places/nearby/search?lat=&lng=&radius=&limit=
func NearbyPlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		center, err := queryPoint(c, "lat", "lng")
		if err != nil {
			return respondError(c, err)
		}
		radius, err := queryFloat(c, "radius", defaultPlaceRadius)
		if err != nil {
			return respondError(c, err)
		}
		limit, err := queryInt(c, "limit", 0)
		if err != nil {
			return respondError(c, err)
		}

		places, err := deps.Places.FindNearby(c.UserContext(), center, radius, limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(places)
	}
}

// DistanceHandler returns the geodesic distance between two points.
// GET /places/route/distance?fromLat=&fromLng=&toLat=&toLng=
func DistanceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, err := queryPoint(c, "fromLat", "fromLng")
		if err != nil {
			return respondError(c, err)
		}
		to, err := queryPoint(c, "toLat", "toLng")
		if err != nil {
			return respondError(c, err)
		}

		d, err := deps.Places.Distance(c.UserContext(), from, to)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"distance": d,
			"unit":     "meters",
			"from":     from,
			"to":       to,
		})
	}
}
