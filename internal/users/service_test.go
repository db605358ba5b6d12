package users

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiStub struct {
	getUserFunc func(ctx context.Context, id uint) (*models.User, error)
}

func (s *apiStub) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.getUserFunc(ctx, id)
}

type snapshotsStub struct {
	users map[uint]models.User
}

func newSnapshotsStub() *snapshotsStub {
	return &snapshotsStub{users: map[uint]models.User{}}
}

func (s *snapshotsStub) SaveUser(ctx context.Context, user *models.User) error {
	s.users[user.ID] = *user
	return nil
}

func (s *snapshotsStub) UserFallback(ctx context.Context, id uint) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNoSnapshot
	}
	return &u, nil
}

func withTestCache(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })
	return mr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGet_CachesAndSnapshotsFetchedProfile(t *testing.T) {
	withTestCache(t)
	ctx := context.Background()

	calls := 0
	api := &apiStub{
		getUserFunc: func(ctx context.Context, id uint) (*models.User, error) {
			calls++
			return &models.User{ID: id, Username: "mira"}, nil
		},
	}
	snaps := newSnapshotsStub()
	svc := NewService(api, snaps, discardLogger())

	first, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "mira", first.Username)
	assert.Contains(t, snaps.users, uint(7), "fetched profile should be snapshotted")

	// Second read is served from the cache.
	second, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, first.Username, second.Username)
	assert.Equal(t, 1, calls)
}

func TestGet_UnavailableFallsBackToSnapshot(t *testing.T) {
	withTestCache(t)

	api := &apiStub{
		getUserFunc: func(ctx context.Context, id uint) (*models.User, error) {
			return nil, models.NewUnavailableError(assert.AnError)
		},
	}
	snaps := newSnapshotsStub()
	snaps.users[7] = models.User{ID: 7, Username: "shelved"}
	svc := NewService(api, snaps, discardLogger())

	got, err := svc.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "shelved", got.Username)

	_, err = svc.Get(context.Background(), 8)
	assert.True(t, models.IsUnavailableError(err), "no snapshot means the outage surfaces")
}

func TestGet_NonTransportErrorSkipsFallback(t *testing.T) {
	withTestCache(t)

	api := &apiStub{
		getUserFunc: func(ctx context.Context, id uint) (*models.User, error) {
			return nil, models.NewNotFoundError("User", id)
		},
	}
	snaps := newSnapshotsStub()
	snaps.users[7] = models.User{ID: 7, Username: "shelved"}
	svc := NewService(api, snaps, discardLogger())

	_, err := svc.Get(context.Background(), 7)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}
