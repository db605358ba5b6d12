package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"inkwell/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostSnapshot is one post as last seen from the remote API. Title and
// Author are denormalized for offline search; Payload holds the full record.
type PostSnapshot struct {
	PostID    uint   `gorm:"primaryKey"`
	Title     string `gorm:"index"`
	Author    string `gorm:"index"`
	Payload   string `gorm:"not null"`
	FetchedAt time.Time
}

// ThreadSnapshot is the flat comment list of one post as last fetched.
type ThreadSnapshot struct {
	PostID    uint   `gorm:"primaryKey"`
	Payload   string `gorm:"not null"`
	FetchedAt time.Time
}

// UserSnapshot is one user profile as last fetched.
type UserSnapshot struct {
	UserID    uint   `gorm:"primaryKey"`
	Payload   string `gorm:"not null"`
	FetchedAt time.Time
}

// Draft is a locally-saved markdown draft that has never left this machine.
type Draft struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      string    `json:"tags"` // comma-joined
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrNoSnapshot is returned by fallback reads when nothing was ever cached.
var ErrNoSnapshot = errors.New("no local snapshot")

// SavePosts upserts a page of posts.
func (s *Store) SavePosts(ctx context.Context, posts []models.Post) error {
	for i := range posts {
		if err := s.SavePost(ctx, &posts[i]); err != nil {
			return err
		}
	}
	return nil
}

// SavePost upserts a single post.
func (s *Store) SavePost(ctx context.Context, post *models.Post) error {
	payload, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("encode post snapshot: %w", err)
	}
	return s.upsert(ctx, &PostSnapshot{
		PostID:    post.ID,
		Title:     post.Title,
		Author:    post.User.Username,
		Payload:   string(payload),
		FetchedAt: time.Now(),
	})
}

// PostsFallback serves a browse/search query from local snapshots. Tag
// filtering happens after decode since tags live inside the payload.
func (s *Store) PostsFallback(ctx context.Context, q models.PostQuery) ([]models.Post, error) {
	tx := s.db.WithContext(ctx).Model(&PostSnapshot{}).Order("fetched_at DESC, post_id DESC")
	if q.Search != "" {
		tx = tx.Where("title LIKE ?", "%"+q.Search+"%")
	}
	if q.Author != "" {
		tx = tx.Where("author = ?", q.Author)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []PostSnapshot
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}

	posts := make([]models.Post, 0, len(rows))
	for _, row := range rows {
		var post models.Post
		if err := json.Unmarshal([]byte(row.Payload), &post); err != nil {
			continue // skip rows written by an older schema
		}
		if q.Tag != "" && !hasTag(post.Tags, q.Tag) {
			continue
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func hasTag(tags []string, want string) bool {
	for _, tag := range tags {
		if strings.EqualFold(tag, want) {
			return true
		}
	}
	return false
}

// PostFallback serves a single post from its snapshot.
func (s *Store) PostFallback(ctx context.Context, id uint) (*models.Post, error) {
	var row PostSnapshot
	err := s.db.WithContext(ctx).First(&row, "post_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}

	var post models.Post
	if err := json.Unmarshal([]byte(row.Payload), &post); err != nil {
		return nil, fmt.Errorf("decode post snapshot: %w", err)
	}
	return &post, nil
}

// SaveThread replaces the snapshot of a post's flat comment list.
func (s *Store) SaveThread(ctx context.Context, postID uint, comments []models.Comment) error {
	payload, err := json.Marshal(comments)
	if err != nil {
		return fmt.Errorf("encode thread snapshot: %w", err)
	}
	return s.upsert(ctx, &ThreadSnapshot{
		PostID:    postID,
		Payload:   string(payload),
		FetchedAt: time.Now(),
	})
}

// ThreadFallback serves a post's flat comment list from its snapshot.
func (s *Store) ThreadFallback(ctx context.Context, postID uint) ([]models.Comment, error) {
	var row ThreadSnapshot
	err := s.db.WithContext(ctx).First(&row, "post_id = ?", postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}

	var comments []models.Comment
	if err := json.Unmarshal([]byte(row.Payload), &comments); err != nil {
		return nil, fmt.Errorf("decode thread snapshot: %w", err)
	}
	return comments, nil
}

// SaveUser upserts a user profile snapshot.
func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user snapshot: %w", err)
	}
	return s.upsert(ctx, &UserSnapshot{
		UserID:    user.ID,
		Payload:   string(payload),
		FetchedAt: time.Now(),
	})
}

// UserFallback serves a user profile from its snapshot.
func (s *Store) UserFallback(ctx context.Context, id uint) (*models.User, error) {
	var row UserSnapshot
	err := s.db.WithContext(ctx).First(&row, "user_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal([]byte(row.Payload), &user); err != nil {
		return nil, fmt.Errorf("decode user snapshot: %w", err)
	}
	return &user, nil
}

// SaveDraft stores a draft, assigning an id on first save, and bumps its
// updated-at stamp.
func (s *Store) SaveDraft(ctx context.Context, draft *Draft) error {
	if draft.ID == "" {
		draft.ID = uuid.New().String()
	}
	draft.UpdatedAt = time.Now()
	return s.upsert(ctx, draft)
}

// Drafts lists all drafts, most recently edited first.
func (s *Store) Drafts(ctx context.Context) ([]Draft, error) {
	var drafts []Draft
	err := s.db.WithContext(ctx).Order("updated_at DESC").Find(&drafts).Error
	return drafts, err
}

// DraftByID fetches one draft.
func (s *Store) DraftByID(ctx context.Context, id string) (*Draft, error) {
	var draft Draft
	err := s.db.WithContext(ctx).First(&draft, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("Draft", id)
	}
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// DeleteDraft removes a draft. Deleting an unknown id is a no-op.
func (s *Store) DeleteDraft(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&Draft{}, "id = ?", id).Error
}
