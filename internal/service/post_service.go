package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/postlinehq/postline/internal/models"
	"github.com/postlinehq/postline/internal/repository"
	"github.com/postlinehq/postline/internal/transfer"
)

var (
	ErrEmptyContent  = errors.New("content cannot be empty")
	ErrEmptyPlatform = errors.New("platform cannot be empty")
	ErrContentLong   = errors.New("content exceeds the platform limit")
	ErrNotFuture     = errors.New("scheduled time must be in the future")
	ErrPostNotFound  = errors.New("post not found")
)

type PostService interface {
	Create(ctx context.Context, pc *transfer.PostCreation) (*models.SocialPost, time.Duration, error)
	List(ctx context.Context) ([]*models.SocialPost, error)
	Remove(ctx context.Context, postID int64) error
}

type postService struct {
	pr repository.PostRepository
}

func NewPostService(pr repository.PostRepository) PostService {
	return &postService{pr: pr}
}

// Create validates and enqueues a post. All validation happens here, once;
// the dispatcher trusts whatever it finds pending in the store. The
// returned duration is the delay until the post is due, for the queue
// fast path.
func (s *postService) Create(ctx context.Context, pc *transfer.PostCreation) (*models.SocialPost, time.Duration, error) {
	if pc == nil {
		err := errors.New("post creation data is nil")
		slog.Error(err.Error())
		return nil, 0, err
	}
	if pc.Content == "" {
		slog.Info(ErrEmptyContent.Error())
		return nil, 0, ErrEmptyContent
	}
	if pc.Platform == "" {
		slog.Info(ErrEmptyPlatform.Error())
		return nil, 0, ErrEmptyPlatform
	}

	if limit := models.ContentLimit(pc.Platform); len([]rune(pc.Content)) > limit {
		err := fmt.Errorf("%w: %s allows %d characters", ErrContentLong, pc.Platform, limit)
		slog.Info(err.Error())
		return nil, 0, err
	}

	// Timestamps are normalized to UTC at this boundary; nothing past
	// this point ever sees a local time.
	scheduledAt := pc.ScheduledAt.UTC()
	now := time.Now().UTC()
	if !scheduledAt.After(now) {
		slog.Info(ErrNotFuture.Error())
		return nil, 0, ErrNotFuture
	}

	post := &models.SocialPost{
		Content:     pc.Content,
		Platform:    pc.Platform,
		ScheduledAt: scheduledAt,
		Status:      models.PostStatusPending,
	}
	if pc.MediaURL != "" {
		post.MediaURL = sql.NullString{String: pc.MediaURL, Valid: true}
	}

	id, err := s.pr.Create(ctx, post)
	if err != nil {
		return nil, 0, fmt.Errorf("error creating post: %w", err)
	}
	post.ID = id
	post.CreatedAt = now

	delay := time.Until(scheduledAt)
	if delay < 0 {
		delay = 0
	}

	return post, delay, nil
}

func (s *postService) List(ctx context.Context) ([]*models.SocialPost, error) {
	posts, err := s.pr.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}
	return posts, nil
}

func (s *postService) Remove(ctx context.Context, postID int64) error {
	post, err := s.pr.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		slog.Info(ErrPostNotFound.Error())
		return ErrPostNotFound
	}

	if err := s.pr.Remove(ctx, postID); err != nil {
		return fmt.Errorf("error removing post: %w", err)
	}
	return nil
}
