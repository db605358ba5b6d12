package server

import (
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SessionRequired rejects requests while no authenticated session exists.
// The gateway serves a single local user, so this gate reads the process-wide
// session rather than a per-request token.
func (s *Server) SessionRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		state := s.sessions.State()
		if !state.IsAuthenticated || state.User == nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewAuthenticationError("Not logged in"))
		}
		c.Locals("userID", state.User.ID)
		return c.Next()
	}
}

// ModeratorRequired rejects requests unless the session user can moderate.
// It must run behind SessionRequired.
func (s *Server) ModeratorRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		state := s.sessions.State()
		if state.User == nil || !state.User.CanModerate() {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewUnauthorizedError("Moderator access required"))
		}
		return c.Next()
	}
}
