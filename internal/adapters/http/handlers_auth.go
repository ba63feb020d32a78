package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/oceanpulse/argochat/internal/core/usecases"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// RequireSession rejects requests without an active session. The SPA
// redirects to the login page on 401.
func RequireSession(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Auth.Current() == nil {
			return errUnauthorized(c, "sign in or continue as guest")
		}
		return c.Next()
	}
}

// LoginHandler starts an authenticated session.
func LoginHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		sess, err := deps.Auth.Login(c.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, usecases.ErrMissingCredentials) {
				return errBadRequest(c, "email and password are required")
			}
			return errInternal(c, err.Error())
		}
		return c.JSON(sess)
	}
}

// RegisterHandler creates a new (normal-tier) account session.
func RegisterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req registerRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		sess, err := deps.Auth.Register(c.Context(), req.Email, req.Password, req.Name)
		if err != nil {
			if errors.Is(err, usecases.ErrMissingCredentials) {
				return errBadRequest(c, "email, password and name are required")
			}
			return errInternal(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(sess)
	}
}

// GuestHandler starts an anonymous trial session.
func GuestHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Auth.ContinueAsGuest())
	}
}

// LogoutHandler ends the session and destroys its stored state.
func LogoutHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Auth.Current() == nil {
			return errUnauthorized(c, "no active session")
		}
		if err := deps.Auth.Logout(c.Context()); err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(fiber.Map{"status": "logged out"})
	}
}

// SessionHandler returns the active session.
func SessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := deps.Auth.Current()
		if sess == nil {
			return errUnauthorized(c, "no active session")
		}
		return c.JSON(sess)
	}
}
