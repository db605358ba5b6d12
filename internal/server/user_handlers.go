package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetUserProfile returns a user's public profile.
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	user, err := s.users.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(user)
}
