package models

import "time"

// Comment represents a comment on a post. The server delivers comments as a
// flat list; Replies is computed client-side (see internal/comments) and is
// never authoritative.
type Comment struct {
	ID              uint       `json:"id"`
	PostID          uint       `json:"post_id"`
	ParentCommentID *uint      `json:"parent_comment_id,omitempty"`
	Content         string     `json:"content"`
	IsApproved      bool       `json:"is_approved"`
	UserID          uint       `json:"user_id"`
	User            User       `json:"user"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Replies         []*Comment `json:"replies,omitempty"`
}

// IsRoot reports whether the comment sits at the top level of its thread.
func (c *Comment) IsRoot() bool {
	return c.ParentCommentID == nil
}

// CommentInput is the payload for creating a comment or a reply.
type CommentInput struct {
	PostID          uint   `json:"post_id"`
	ParentCommentID *uint  `json:"parent_comment_id,omitempty"`
	Content         string `json:"content"`
}
