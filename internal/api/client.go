// Package api implements the typed HTTP client for the remote Inkwell REST
// API. Requests carry the stored bearer token when one exists; responses map
// onto the models.AppError taxonomy. There is no retry or backoff here; a
// failed call surfaces immediately to the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/storage"
)

// Client talks to the remote Inkwell REST API.
type Client struct {
	baseURL string
	http    *http.Client
	storage storage.Storage
}

// NewClient creates a client rooted at baseURL (e.g. "https://host/api").
// The storage is read for the bearer token on every request, so login and
// logout take effect without rebuilding the client.
func NewClient(baseURL string, timeout time.Duration, st storage.Storage) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		storage: st,
	}
}

// do performs one API round trip. operation labels the upstream error
// metric; out, when non-nil, receives the decoded JSON response body.
func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return models.NewInternalError(fmt.Errorf("encode %s request: %w", operation, err))
		}
		reqBody = bytes.NewReader(data)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return models.NewInternalError(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := c.storage.Get(storage.TokenKey); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		middleware.UpstreamErrors.WithLabelValues(operation).Inc()
		return models.NewUnavailableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		middleware.UpstreamErrors.WithLabelValues(operation).Inc()
		return errorFromResponse(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return models.NewInternalError(fmt.Errorf("decode %s response: %w", operation, err))
	}
	return nil
}

// errorFromResponse maps an HTTP error status onto the AppError taxonomy,
// preferring the server's own message when the body carries one.
func errorFromResponse(resp *http.Response) error {
	var body models.ErrorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body)

	msg := body.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return models.NewAuthenticationError(msg)
	case resp.StatusCode == http.StatusForbidden:
		return models.NewUnauthorizedError(msg)
	case resp.StatusCode == http.StatusNotFound:
		return &models.AppError{Code: models.CodeNotFound, Message: msg}
	case resp.StatusCode < 500:
		return models.NewValidationError(msg)
	default:
		return models.NewInternalError(fmt.Errorf("remote API returned %d: %s", resp.StatusCode, msg))
	}
}
