// Package users serves user-profile views: remote profiles behind the Redis
// response cache, with the local snapshot as offline fallback.
package users

import (
	"context"
	"errors"
	"log/slog"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/store"
)

// API is the slice of the remote client the profile view needs.
type API interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

// Snapshots is the offline shelf for user profiles.
type Snapshots interface {
	SaveUser(ctx context.Context, user *models.User) error
	UserFallback(ctx context.Context, id uint) (*models.User, error)
}

// Service fetches and caches user profiles.
type Service struct {
	api       API
	snapshots Snapshots
	logger    *slog.Logger
}

func NewService(api API, snapshots Snapshots, logger *slog.Logger) *Service {
	return &Service{api: api, snapshots: snapshots, logger: logger}
}

// Get returns one user profile, preferring the Redis cache, then the remote
// API, then the local snapshot.
func (s *Service) Get(ctx context.Context, id uint) (*models.User, error) {
	var cached models.User
	if cache.GetJSON(ctx, cache.UserKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.api.GetUser(ctx, id)
	if err != nil {
		if !models.IsUnavailableError(err) {
			return nil, err
		}
		snap, snapErr := s.snapshots.UserFallback(ctx, id)
		if snapErr != nil {
			if !errors.Is(snapErr, store.ErrNoSnapshot) {
				s.logger.WarnContext(ctx, "user snapshot read failed",
					slog.Uint64("user_id", uint64(id)),
					slog.String("error", snapErr.Error()),
				)
			}
			return nil, err
		}
		return snap, nil
	}

	if err := s.snapshots.SaveUser(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "user snapshot write failed",
			slog.Uint64("user_id", uint64(id)),
			slog.String("error", err.Error()),
		)
	}
	cache.SetJSON(ctx, cache.UserKey(id), user, cache.UserTTL)
	return user, nil
}
