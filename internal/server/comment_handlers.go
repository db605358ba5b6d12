package server

import (
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetComments returns the nested comment tree for a post.
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	tree, err := s.comments.Thread(c.UserContext(), postID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(tree)
}

type commentRequest struct {
	Content         string `json:"content"`
	ParentCommentID *uint  `json:"parent_comment_id,omitempty"`
}

// CreateComment posts a comment or reply on a post.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("Invalid request body"))
	}

	comment, err := s.comments.Create(c.UserContext(), models.CommentInput{
		PostID:          postID,
		ParentCommentID: req.ParentCommentID,
		Content:         req.Content,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// UpdateComment edits a comment's content.
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, models.NewValidationError("Invalid request body"))
	}

	comment, err := s.comments.Update(c.UserContext(), postID, commentID, req.Content)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment removes a comment and its reply subtree.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	if err := s.comments.Delete(c.UserContext(), postID, commentID); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ApproveComment marks a comment as approved.
func (s *Server) ApproveComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	comment, err := s.comments.Approve(c.UserContext(), commentID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(comment)
}

// RejectComment marks a comment as rejected.
func (s *Server) RejectComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	comment, err := s.comments.Reject(c.UserContext(), commentID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(comment)
}
