package store

import (
	"context"
	"path/filepath"
	"testing"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPostSnapshotRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	post := models.Post{
		ID:      12,
		Title:   "Gardening in March",
		Content: "# Soil prep\n\nStart early.",
		Tags:    []string{"gardening", "spring"},
		User:    models.User{ID: 3, Username: "mira"},
	}
	require.NoError(t, s.SavePost(ctx, &post))

	got, err := s.PostFallback(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, post.Title, got.Title)
	assert.Equal(t, post.Tags, got.Tags)
	assert.Equal(t, "mira", got.User.Username)
}

func TestPostFallback_NoSnapshot(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.PostFallback(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSavePost_Overwrites(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePost(ctx, &models.Post{ID: 5, Title: "first"}))
	require.NoError(t, s.SavePost(ctx, &models.Post{ID: 5, Title: "second"}))

	got, err := s.PostFallback(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Title)
}

func TestPostsFallback_Filters(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SavePosts(ctx, []models.Post{
		{ID: 1, Title: "Sourdough basics", Tags: []string{"baking"}, User: models.User{ID: 1, Username: "mira"}},
		{ID: 2, Title: "Sourdough troubleshooting", Tags: []string{"baking", "advanced"}, User: models.User{ID: 2, Username: "theo"}},
		{ID: 3, Title: "Bike maintenance", Tags: []string{"cycling"}, User: models.User{ID: 1, Username: "mira"}},
	}))

	t.Run("search by title", func(t *testing.T) {
		posts, err := s.PostsFallback(ctx, models.PostQuery{Search: "Sourdough"})
		require.NoError(t, err)
		assert.Len(t, posts, 2)
	})

	t.Run("filter by author", func(t *testing.T) {
		posts, err := s.PostsFallback(ctx, models.PostQuery{Author: "mira"})
		require.NoError(t, err)
		assert.Len(t, posts, 2)
	})

	t.Run("filter by tag", func(t *testing.T) {
		posts, err := s.PostsFallback(ctx, models.PostQuery{Tag: "cycling"})
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, uint(3), posts[0].ID)
	})

	t.Run("limit and offset", func(t *testing.T) {
		posts, err := s.PostsFallback(ctx, models.PostQuery{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, posts, 2)
	})
}

func TestThreadSnapshotRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	parent := uint(1)
	in := []models.Comment{
		{ID: 1, PostID: 4, Content: "root", IsApproved: true},
		{ID: 2, PostID: 4, ParentCommentID: &parent, Content: "reply"},
	}
	require.NoError(t, s.SaveThread(ctx, 4, in))

	got, err := s.ThreadFallback(ctx, 4)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[1].ParentCommentID)
	assert.Equal(t, uint(1), *got[1].ParentCommentID)

	_, err = s.ThreadFallback(ctx, 5)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestUserSnapshotRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveUser(ctx, &models.User{ID: 7, Username: "mira", Role: models.RoleModerator}))

	got, err := s.UserFallback(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "mira", got.Username)
	assert.Equal(t, models.RoleModerator, got.Role)

	_, err = s.UserFallback(ctx, 8)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestDraftLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	draft := &Draft{Title: "WIP", Content: "unfinished thoughts", Tags: "ideas"}
	require.NoError(t, s.SaveDraft(ctx, draft))
	require.NotEmpty(t, draft.ID, "first save should assign an id")

	draft.Content = "slightly more finished"
	require.NoError(t, s.SaveDraft(ctx, draft))

	drafts, err := s.Drafts(ctx)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "slightly more finished", drafts[0].Content)

	got, err := s.DraftByID(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.Title, got.Title)

	require.NoError(t, s.DeleteDraft(ctx, draft.ID))
	_, err = s.DraftByID(ctx, draft.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	assert.NoError(t, s.DeleteDraft(ctx, "missing"), "deleting an unknown id is a no-op")
}
