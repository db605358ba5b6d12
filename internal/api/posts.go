package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"inkwell/internal/models"
)

// ListPosts fetches posts matching the given browse/search filters.
func (c *Client) ListPosts(ctx context.Context, q models.PostQuery) ([]models.Post, error) {
	query := url.Values{}
	if q.Search != "" {
		query.Set("q", q.Search)
	}
	if q.Tag != "" {
		query.Set("tag", q.Tag)
	}
	if q.Author != "" {
		query.Set("author", q.Author)
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		query.Set("offset", strconv.Itoa(q.Offset))
	}

	var posts []models.Post
	if err := c.do(ctx, "list_posts", http.MethodGet, "/posts", query, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost fetches a single post by id.
func (c *Client) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	path := fmt.Sprintf("/posts/%d", id)
	if err := c.do(ctx, "get_post", http.MethodGet, path, nil, nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost publishes or drafts a new post.
func (c *Client) CreatePost(ctx context.Context, in models.PostInput) (*models.Post, error) {
	var post models.Post
	if err := c.do(ctx, "create_post", http.MethodPost, "/posts", nil, in, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost edits an existing post.
func (c *Client) UpdatePost(ctx context.Context, id uint, in models.PostInput) (*models.Post, error) {
	var post models.Post
	path := fmt.Sprintf("/posts/%d", id)
	if err := c.do(ctx, "update_post", http.MethodPut, path, nil, in, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, id uint) error {
	path := fmt.Sprintf("/posts/%d", id)
	return c.do(ctx, "delete_post", http.MethodDelete, path, nil, nil, nil)
}
