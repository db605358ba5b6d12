package api

import (
	"context"
	"fmt"
	"net/http"

	"inkwell/internal/models"
)

// ListComments fetches the flat comment list for a post. Thread assembly is
// the caller's concern (see internal/comments).
func (c *Client) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	path := fmt.Sprintf("/posts/%d/comments", postID)
	if err := c.do(ctx, "list_comments", http.MethodGet, path, nil, nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// CreateComment posts a new comment or reply and returns the stored record.
func (c *Client) CreateComment(ctx context.Context, in models.CommentInput) (*models.Comment, error) {
	var comment models.Comment
	if err := c.do(ctx, "create_comment", http.MethodPost, "/comments", nil, in, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// UpdateComment edits a comment's content.
func (c *Client) UpdateComment(ctx context.Context, id uint, content string) (*models.Comment, error) {
	var comment models.Comment
	path := fmt.Sprintf("/comments/%d", id)
	body := map[string]string{"content": content}
	if err := c.do(ctx, "update_comment", http.MethodPut, path, nil, body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, id uint) error {
	path := fmt.Sprintf("/comments/%d", id)
	return c.do(ctx, "delete_comment", http.MethodDelete, path, nil, nil, nil)
}

// ApproveComment marks a comment as approved (moderation).
func (c *Client) ApproveComment(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	path := fmt.Sprintf("/comments/%d/approve", id)
	if err := c.do(ctx, "approve_comment", http.MethodPut, path, nil, nil, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// RejectComment marks a comment as rejected (moderation).
func (c *Client) RejectComment(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	path := fmt.Sprintf("/comments/%d/reject", id)
	if err := c.do(ctx, "reject_comment", http.MethodPut, path, nil, nil, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}
