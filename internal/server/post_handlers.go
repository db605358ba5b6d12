package server

import (
	"inkwell/internal/models"
	"inkwell/internal/store"

	"github.com/gofiber/fiber/v2"
)

// GetPosts lists posts matching the browse/search filters.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	q := models.PostQuery{
		Search: c.Query("q"),
		Tag:    c.Query("tag"),
		Author: c.Query("author"),
		Limit:  p.Limit,
		Offset: p.Offset,
	}

	posts, err := s.posts.List(c.UserContext(), q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(posts)
}

// GetPost returns a single post.
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.posts.Get(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(post)
}

// CreatePost publishes a new post.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var in models.PostInput
	if err := c.BodyParser(&in); err != nil {
		return fail(c, models.NewValidationError("Invalid request body"))
	}

	post, err := s.posts.Create(c.UserContext(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost edits an existing post.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var in models.PostInput
	if err := c.BodyParser(&in); err != nil {
		return fail(c, models.NewValidationError("Invalid request body"))
	}

	post, err := s.posts.Update(c.UserContext(), id, in)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(post)
}

// DeletePost removes a post.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.posts.Delete(c.UserContext(), id); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetDrafts lists the editor's local drafts.
func (s *Server) GetDrafts(c *fiber.Ctx) error {
	drafts, err := s.posts.Drafts(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(drafts)
}

// SaveDraft stores a local draft, creating it when no id is supplied.
func (s *Server) SaveDraft(c *fiber.Ctx) error {
	var draft store.Draft
	if err := c.BodyParser(&draft); err != nil {
		return fail(c, models.NewValidationError("Invalid request body"))
	}

	saved, err := s.posts.SaveDraft(c.UserContext(), &draft)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(saved)
}

// DeleteDraft discards a local draft.
func (s *Server) DeleteDraft(c *fiber.Ctx) error {
	if err := s.posts.DeleteDraft(c.UserContext(), c.Params("draftId")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type publishDraftRequest struct {
	Publish bool `json:"publish"`
}

// PublishDraft submits a local draft as a new post.
func (s *Server) PublishDraft(c *fiber.Ctx) error {
	req := publishDraftRequest{Publish: true}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fail(c, models.NewValidationError("Invalid request body"))
		}
	}

	post, err := s.posts.PublishDraft(c.UserContext(), c.Params("draftId"), req.Publish)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}
