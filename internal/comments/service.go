package comments

import (
	"context"
	"errors"
	"log/slog"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/store"
	"inkwell/internal/validation"
)

// API is the slice of the remote client the comment workflow needs.
type API interface {
	ListComments(ctx context.Context, postID uint) ([]models.Comment, error)
	CreateComment(ctx context.Context, in models.CommentInput) (*models.Comment, error)
	UpdateComment(ctx context.Context, id uint, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, id uint) error
	ApproveComment(ctx context.Context, id uint) (*models.Comment, error)
	RejectComment(ctx context.Context, id uint) (*models.Comment, error)
}

// Snapshots is the offline shelf for comment threads.
type Snapshots interface {
	SaveThread(ctx context.Context, postID uint, comments []models.Comment) error
	ThreadFallback(ctx context.Context, postID uint) ([]models.Comment, error)
}

// Service fetches, assembles and mutates comment threads.
type Service struct {
	api       API
	snapshots Snapshots
	logger    *slog.Logger
}

func NewService(api API, snapshots Snapshots, logger *slog.Logger) *Service {
	return &Service{api: api, snapshots: snapshots, logger: logger}
}

// Thread returns the nested comment tree for a post. The flat list comes
// from the Redis cache when fresh, otherwise from the remote API; when the
// API is unreachable the last local snapshot serves instead.
func (s *Service) Thread(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var flat []models.Comment
	if cache.GetJSON(ctx, cache.ThreadKey(postID), &flat) {
		return BuildTree(flat), nil
	}

	flat, err := s.api.ListComments(ctx, postID)
	if err != nil {
		if !models.IsUnavailableError(err) {
			return nil, err
		}
		snap, snapErr := s.snapshots.ThreadFallback(ctx, postID)
		if snapErr != nil {
			if !errors.Is(snapErr, store.ErrNoSnapshot) {
				s.logger.WarnContext(ctx, "thread snapshot read failed",
					slog.Uint64("post_id", uint64(postID)),
					slog.String("error", snapErr.Error()),
				)
			}
			return nil, err
		}
		s.logger.InfoContext(ctx, "serving comment thread from snapshot",
			slog.Uint64("post_id", uint64(postID)),
		)
		return BuildTree(snap), nil
	}

	if err := s.snapshots.SaveThread(ctx, postID, flat); err != nil {
		s.logger.WarnContext(ctx, "thread snapshot write failed",
			slog.Uint64("post_id", uint64(postID)),
			slog.String("error", err.Error()),
		)
	}
	cache.SetJSON(ctx, cache.ThreadKey(postID), flat, cache.ThreadTTL)
	return BuildTree(flat), nil
}

// Create submits a new comment or reply and invalidates the cached thread.
func (s *Service) Create(ctx context.Context, in models.CommentInput) (*models.Comment, error) {
	if err := validation.ValidateCommentContent(in.Content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	comment, err := s.api.CreateComment(ctx, in)
	if err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, cache.ThreadKey(in.PostID))
	return comment, nil
}

// Update edits a comment's content and invalidates the cached thread.
func (s *Service) Update(ctx context.Context, postID, commentID uint, content string) (*models.Comment, error) {
	if err := validation.ValidateCommentContent(content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	comment, err := s.api.UpdateComment(ctx, commentID, content)
	if err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, cache.ThreadKey(postID))
	return comment, nil
}

// Delete removes a comment. The server prunes the whole reply subtree, so
// the cached thread is always stale afterwards.
func (s *Service) Delete(ctx context.Context, postID, commentID uint) error {
	if err := s.api.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.ThreadKey(postID))
	return nil
}

// Approve marks a comment as approved.
func (s *Service) Approve(ctx context.Context, commentID uint) (*models.Comment, error) {
	comment, err := s.api.ApproveComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, cache.ThreadKey(comment.PostID))
	return comment, nil
}

// Reject marks a comment as rejected.
func (s *Service) Reject(ctx context.Context, commentID uint) (*models.Comment, error) {
	comment, err := s.api.RejectComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	cache.Invalidate(ctx, cache.ThreadKey(comment.PostID))
	return comment, nil
}
