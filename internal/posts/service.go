// Package posts owns the reading and writing workflow for blog posts:
// browse and search with offline fallback, the editor's local drafts, and
// publishing.
package posts

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/store"
	"inkwell/internal/validation"
)

// API is the slice of the remote client the post workflow needs.
type API interface {
	ListPosts(ctx context.Context, q models.PostQuery) ([]models.Post, error)
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	CreatePost(ctx context.Context, in models.PostInput) (*models.Post, error)
	UpdatePost(ctx context.Context, id uint, in models.PostInput) (*models.Post, error)
	DeletePost(ctx context.Context, id uint) error
}

// Snapshots is the offline shelf for posts and the home of local drafts.
type Snapshots interface {
	SavePosts(ctx context.Context, posts []models.Post) error
	SavePost(ctx context.Context, post *models.Post) error
	PostsFallback(ctx context.Context, q models.PostQuery) ([]models.Post, error)
	PostFallback(ctx context.Context, id uint) (*models.Post, error)
	SaveDraft(ctx context.Context, draft *store.Draft) error
	Drafts(ctx context.Context) ([]store.Draft, error)
	DraftByID(ctx context.Context, id string) (*store.Draft, error)
	DeleteDraft(ctx context.Context, id string) error
}

// Service fetches, caches and mutates posts.
type Service struct {
	api       API
	snapshots Snapshots
	logger    *slog.Logger
}

func NewService(api API, snapshots Snapshots, logger *slog.Logger) *Service {
	return &Service{api: api, snapshots: snapshots, logger: logger}
}

// List returns posts matching the query, falling back to local snapshots
// when the remote API is unreachable. Excerpts missing from the server
// response are derived from the markdown body.
func (s *Service) List(ctx context.Context, q models.PostQuery) ([]models.Post, error) {
	posts, err := s.api.ListPosts(ctx, q)
	if err != nil {
		if !models.IsUnavailableError(err) {
			return nil, err
		}
		s.logger.InfoContext(ctx, "serving post list from snapshots",
			slog.String("error", err.Error()),
		)
		return s.snapshots.PostsFallback(ctx, q)
	}

	for i := range posts {
		if posts[i].Excerpt == "" {
			posts[i].Excerpt = Excerpt(posts[i].Content)
		}
	}
	if err := s.snapshots.SavePosts(ctx, posts); err != nil {
		s.logger.WarnContext(ctx, "post snapshot write failed",
			slog.String("error", err.Error()),
		)
	}
	return posts, nil
}

// Get returns one post, preferring the Redis cache, then the remote API,
// then the local snapshot.
func (s *Service) Get(ctx context.Context, id uint) (*models.Post, error) {
	var cached models.Post
	if cache.GetJSON(ctx, cache.PostKey(id), &cached) {
		return &cached, nil
	}

	post, err := s.api.GetPost(ctx, id)
	if err != nil {
		if !models.IsUnavailableError(err) {
			return nil, err
		}
		snap, snapErr := s.snapshots.PostFallback(ctx, id)
		if snapErr != nil {
			if !errors.Is(snapErr, store.ErrNoSnapshot) {
				s.logger.WarnContext(ctx, "post snapshot read failed",
					slog.Uint64("post_id", uint64(id)),
					slog.String("error", snapErr.Error()),
				)
			}
			return nil, err
		}
		return snap, nil
	}

	if post.Excerpt == "" {
		post.Excerpt = Excerpt(post.Content)
	}
	if err := s.snapshots.SavePost(ctx, post); err != nil {
		s.logger.WarnContext(ctx, "post snapshot write failed",
			slog.Uint64("post_id", uint64(id)),
			slog.String("error", err.Error()),
		)
	}
	cache.SetJSON(ctx, cache.PostKey(id), post, cache.PostTTL)
	return post, nil
}

// Create publishes a new post.
func (s *Service) Create(ctx context.Context, in models.PostInput) (*models.Post, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return s.api.CreatePost(ctx, in)
}

// Update edits an existing post and drops its cached copy.
func (s *Service) Update(ctx context.Context, id uint, in models.PostInput) (*models.Post, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	post, err := s.api.UpdatePost(ctx, id, in)
	if err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, cache.PostKey(id))
	return post, nil
}

// Delete removes a post and drops its cached copy and thread.
func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.api.DeletePost(ctx, id); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.PostKey(id))
	cache.Invalidate(ctx, cache.ThreadKey(id))
	return nil
}

func validateInput(in models.PostInput) error {
	if err := validation.ValidatePostTitle(in.Title); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePostContent(in.Content); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

// SaveDraft stores an editor draft locally. Drafts never touch the network.
func (s *Service) SaveDraft(ctx context.Context, draft *store.Draft) (*store.Draft, error) {
	if err := s.snapshots.SaveDraft(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Drafts lists the editor's local drafts, most recently edited first.
func (s *Service) Drafts(ctx context.Context) ([]store.Draft, error) {
	return s.snapshots.Drafts(ctx)
}

// DeleteDraft discards a local draft.
func (s *Service) DeleteDraft(ctx context.Context, id string) error {
	return s.snapshots.DeleteDraft(ctx, id)
}

// PublishDraft submits a local draft as a new post and, on success, removes
// the draft. The draft survives a failed publish.
func (s *Service) PublishDraft(ctx context.Context, id string, publish bool) (*models.Post, error) {
	draft, err := s.snapshots.DraftByID(ctx, id)
	if err != nil {
		return nil, err
	}

	in := models.PostInput{
		Title:   draft.Title,
		Content: draft.Content,
		Publish: publish,
	}
	if draft.Tags != "" {
		in.Tags = strings.Split(draft.Tags, ",")
		for i := range in.Tags {
			in.Tags[i] = strings.TrimSpace(in.Tags[i])
		}
	}

	post, err := s.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := s.snapshots.DeleteDraft(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "published draft could not be removed",
			slog.String("draft_id", id),
			slog.String("error", err.Error()),
		)
	}
	return post, nil
}
