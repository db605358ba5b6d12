package server

import (
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

type loginRequest struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
	RememberMe      bool   `json:"remember_me"`
}

// GetSession returns the current session state for the UI shell.
func (s *Server) GetSession(c *fiber.Ctx) error {
	return c.JSON(s.sessions.State())
}

// Login exchanges credentials for a session.
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("Invalid request body"))
	}
	if req.UsernameOrEmail == "" || req.Password == "" {
		return fail(c, models.NewValidationError("Username and password are required"))
	}

	state, err := s.sessions.Login(c.UserContext(), models.Credentials{
		UsernameOrEmail: req.UsernameOrEmail,
		Password:        req.Password,
	}, req.RememberMe)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(state)
}

// Register creates an account and logs into it.
func (s *Server) Register(c *fiber.Ctx) error {
	var req models.Registration
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("Invalid request body"))
	}

	state, err := s.sessions.Register(c.UserContext(), req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(state)
}

// Logout clears the session. Always succeeds.
func (s *Server) Logout(c *fiber.Ctx) error {
	return c.JSON(s.sessions.Logout())
}

// UpdateMyProfile pushes profile changes to the remote API.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req models.ProfileUpdate
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("Invalid request body"))
	}

	state, err := s.sessions.UpdateProfile(c.UserContext(), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(state)
}
