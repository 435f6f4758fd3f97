package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/placemap/internal/core/domain"
	"github.com/samirrijal/placemap/internal/core/usecases"
)

const (
	defaultUserRadius = 10000.0
	maxAvatarBytes    = 5 << 20
)

// NearbyUsersHandler lists located users within a radius.
// GET /users/nearby?lat=&lng=&radius=&limit=
func NearbyUsersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		center, err := queryPoint(c, "lat", "lng")
		if err != nil {
			return respondError(c, err)
		}
		radius, err := queryFloat(c, "radius", defaultUserRadius)
		if err != nil {
			return respondError(c, err)
		}
		limit, err := queryInt(c, "limit", usecases.DefaultNearbyUserLimit)
		if err != nil {
			return respondError(c, err)
		}

		res, err := deps.Users.FindNearby(c.UserContext(), center, radius, limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

// SearchUsersHandler finds users by username or display name.
// GET /users/search?q=&offset=&limit=
func SearchUsersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, err := queryInt(c, "offset", 0)
		if err != nil {
			return respondError(c, err)
		}
		limit, err := queryInt(c, "limit", usecases.DefaultSearchLimit)
		if err != nil {
			return respondError(c, err)
		}
		offset, limit = usecases.SearchPage(offset, limit)

		users, total, err := deps.Users.Search(c.UserContext(), c.Query("q"), offset, limit)
		if err != nil {
			return respondError(c, err)
		}
		if users == nil {
			users = []domain.User{}
		}

		page := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, page)
		return c.JSON(PaginatedResponse{Data: users, Pagination: page})
	}
}

// GetUserHandler returns another user's public profile.
// GET /users/:id
func GetUserHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return respondError(c, err)
		}
		u, err := deps.Users.Get(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(u.Public())
	}
}

// MeHandler returns the caller's own profile, email included.
// GET /users/me
func MeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := deps.Users.Get(c.UserContext(), currentUserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(u)
	}
}

type updateProfileRequest struct {
	DisplayName *string  `json:"display_name"`
	Bio         *string  `json:"bio"`
	Website     *string  `json:"website"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// UpdateMeHandler applies a partial profile update.
// PATCH /users/me
func UpdateMeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req updateProfileRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		loc, err := domain.OptionalGeoPoint(req.Latitude, req.Longitude)
		if err != nil {
			return respondError(c, err)
		}

		u, err := deps.Users.UpdateProfile(c.UserContext(), currentUserID(c), domain.ProfileUpdate{
			DisplayName: req.DisplayName,
			Bio:         req.Bio,
			Website:     req.Website,
			Location:    loc,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(u)
	}
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// UpdateLocationHandler sets the caller's coordinate.
// PUT /users/me/location
func UpdateLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req locationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		loc, err := domain.OptionalGeoPoint(req.Latitude, req.Longitude)
		if err != nil {
			return respondError(c, err)
		}
		if loc == nil {
			return respondError(c, fmt.Errorf("%w: latitude and longitude are required", domain.ErrMissingCoordinate))
		}

		u, err := deps.Users.UpdateLocation(c.UserContext(), currentUserID(c), *loc)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(u)
	}
}

// DeleteMeHandler removes the caller's account.
// DELETE /users/me
func DeleteMeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Users.Delete(c.UserContext(), currentUserID(c)); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UploadAvatarHandler stores a new avatar from the multipart field "avatar".
// POST /users/me/avatar
func UploadAvatarHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("avatar")
		if err != nil {
			return errBadRequest(c, `multipart field "avatar" is required`)
		}
		if fh.Size > maxAvatarBytes {
			return newError(c, fiber.StatusRequestEntityTooLarge, "payload_too_large", "avatar exceeds 5 MiB")
		}

		f, err := fh.Open()
		if err != nil {
			return errBadRequest(c, "unreadable upload")
		}
		defer f.Close()

		u, err := deps.Users.UpdateAvatar(c.UserContext(), currentUserID(c), fh.Filename, f)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(u)
	}
}

type statRequest struct {
	Counter string `json:"counter"`
	Delta   int64  `json:"delta"`
}

// IncrementStatHandler adjusts one of a user's engagement counters.
// POST /users/:id/stats
func IncrementStatHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c)
		if err != nil {
			return respondError(c, err)
		}
		var req statRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		stats, err := deps.Users.IncrementStat(c.UserContext(), id, req.Counter, req.Delta)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(stats)
	}
}
