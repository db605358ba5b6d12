package models

import "time"

// Post represents a blog post as served by the remote API.
// Content is the raw markdown the editor produced.
type Post struct {
	ID          uint       `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Excerpt     string     `json:"excerpt,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	UserID      uint       `json:"user_id"`
	User        User       `json:"user"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PostInput is the payload for creating or updating a post.
type PostInput struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
	Publish bool     `json:"publish"`
}

// PostQuery holds the browse/search filters the UI can apply.
type PostQuery struct {
	Search string
	Tag    string
	Author string
	Limit  int
	Offset int
}
