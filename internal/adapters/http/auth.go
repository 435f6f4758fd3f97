package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/placemap/internal/core/domain"
	"github.com/samirrijal/placemap/internal/core/usecases"
)

const userIDLocal = "user_id"

// RequireAuth verifies the bearer token and stores the caller's id in c.Locals.
func RequireAuth(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			return errUnauthorized(c, "missing bearer token")
		}

		id, err := deps.Auth.Authenticate(token)
		if err != nil {
			return errUnauthorized(c, "invalid or expired token")
		}
		c.Locals(userIDLocal, id)
		return c.Next()
	}
}

// currentUserID returns the id set by RequireAuth.
func currentUserID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(userIDLocal).(int64)
	return id
}

type registerRequest struct {
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	DisplayName string   `json:"display_name"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// RegisterHandler creates an account and returns a session.
// POST /auth/register
func RegisterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		loc, err := domain.OptionalGeoPoint(req.Latitude, req.Longitude)
		if err != nil {
			return respondError(c, err)
		}

		sess, err := deps.Auth.Register(c.UserContext(), usecases.RegisterInput{
			Username:    req.Username,
			Email:       req.Email,
			Password:    req.Password,
			DisplayName: req.DisplayName,
			Location:    loc,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(sess)
	}
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// LoginHandler exchanges credentials for a bearer token.
// POST /auth/login
func LoginHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		sess, err := deps.Auth.Login(c.UserContext(), req.Login, req.Password)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(sess)
	}
}
