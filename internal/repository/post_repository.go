package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postlinehq/postline/internal/models"
)

type PostRepository interface {
	Create(ctx context.Context, post *models.SocialPost) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.SocialPost, error)
	List(ctx context.Context) ([]*models.SocialPost, error)
	ListDue(ctx context.Context, now time.Time) ([]*models.SocialPost, error)
	MarkPublished(ctx context.Context, id int64, externalPostID string, now time.Time) (bool, error)
	MarkFailed(ctx context.Context, id int64, message string, now time.Time) (bool, error)
	Remove(ctx context.Context, id int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, content, media_url, platform, scheduled_at, status, external_post_id, error_message, created_at, updated_at`

func (r *postRepository) Create(ctx context.Context, post *models.SocialPost) (int64, error) {
	query := `
		INSERT INTO social_posts (content, media_url, platform, scheduled_at, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		post.Content,
		post.MediaURL,
		post.Platform,
		post.ScheduledAt.UTC(),
		post.Status,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.SocialPost, error) {
	query := `SELECT ` + postColumns + ` FROM social_posts WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var post models.SocialPost
	err := scanPost(row.Scan, &post)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &post, nil
}

func (r *postRepository) List(ctx context.Context) ([]*models.SocialPost, error) {
	query := `SELECT ` + postColumns + ` FROM social_posts ORDER BY scheduled_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

// ListDue returns pending posts whose scheduled time has been reached,
// earliest first. The comparison is <= so a post scheduled exactly at the
// cycle's snapshot counts as due.
func (r *postRepository) ListDue(ctx context.Context, now time.Time) ([]*models.SocialPost, error) {
	query := `SELECT ` + postColumns + `
		FROM social_posts
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusPending, now.UTC())
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}

// MarkPublished commits the pending -> published transition. The predicate
// on status makes the transition a one-shot claim: the caller learns via
// the return value whether this call actually moved the post.
func (r *postRepository) MarkPublished(ctx context.Context, id int64, externalPostID string, now time.Time) (bool, error) {
	query := `
		UPDATE social_posts
		SET status = $1,
			external_post_id = NULLIF($2, ''),
			error_message = NULL,
			updated_at = $3
		WHERE id = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusPublished, externalPostID, now.UTC(), id, models.PostStatusPending)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *postRepository) MarkFailed(ctx context.Context, id int64, message string, now time.Time) (bool, error) {
	query := `
		UPDATE social_posts
		SET status = $1,
			error_message = $2,
			updated_at = $3
		WHERE id = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusFailed, message, now.UTC(), id, models.PostStatusPending)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM social_posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func scanPost(scan func(dest ...any) error, post *models.SocialPost) error {
	return scan(
		&post.ID,
		&post.Content,
		&post.MediaURL,
		&post.Platform,
		&post.ScheduledAt,
		&post.Status,
		&post.ExternalPostID,
		&post.ErrorMessage,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
}

func collectPosts(rows *sql.Rows) ([]*models.SocialPost, error) {
	var posts []*models.SocialPost
	for rows.Next() {
		var post models.SocialPost
		if err := scanPost(rows.Scan, &post); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, &post)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}
