package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/socialflow/internal/models"
)

// ErrNotScheduled is returned by status mutations when the row already left
// the scheduled state, for example a post cancelled while it was in flight.
var ErrNotScheduled = errors.New("post is no longer scheduled")

const DefaultListLimit = 50

const postColumns = `id, user_id, social_account_id, content_text, media_urls, media_type,
	scheduled_for, status, platform_post_id, posted_at, error_message, created_at, updated_at`

type PostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetForUser(ctx context.Context, id, userID int64) (*models.Post, error)
	GetDue(ctx context.Context, buffer time.Duration) ([]*models.Post, error)
	ListForUser(ctx context.Context, userID int64, status string, limit int) ([]*models.Post, error)
	MarkPosted(ctx context.Context, id int64, platformPostID string, postedAt time.Time) error
	MarkFailed(ctx context.Context, id int64, message string) error
	MarkCancelled(ctx context.Context, id int64) error
	Cancel(ctx context.Context, postID, userID int64) (bool, error)
}

type postRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	var mediaURLs []byte
	err := row.Scan(
		&post.ID,
		&post.UserID,
		&post.SocialAccountID,
		&post.ContentText,
		&mediaURLs,
		&post.MediaType,
		&post.ScheduledFor,
		&post.Status,
		&post.PlatformPostID,
		&post.PostedAt,
		&post.ErrorMessage,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	post.MediaURLs = []string{}
	if len(mediaURLs) > 0 {
		if err := json.Unmarshal(mediaURLs, &post.MediaURLs); err != nil {
			return nil, fmt.Errorf("error decoding media urls for post %d: %w", post.ID, err)
		}
	}
	return &post, nil
}

func (r *postRepository) queryPosts(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Create(ctx context.Context, tx *sql.Tx, post *models.Post) (int64, error) {
	query := `
		INSERT INTO scheduled_posts (user_id, social_account_id, content_text, media_urls, media_type, scheduled_for, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	if post.MediaURLs == nil {
		post.MediaURLs = []string{}
	}
	mediaURLs, err := json.Marshal(post.MediaURLs)
	if err != nil {
		return 0, fmt.Errorf("error encoding media urls: %w", err)
	}
	if post.ScheduledFor.IsZero() {
		post.ScheduledFor = r.now().UTC()
	}
	if post.MediaType == "" {
		post.MediaType = models.MediaTypeText
	}
	post.Status = models.PostStatusScheduled

	args := []any{post.UserID, post.SocialAccountID, post.ContentText, mediaURLs, post.MediaType, post.ScheduledFor, post.Status}

	var id int64
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	post.ID = id
	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) GetForUser(ctx context.Context, id, userID int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM scheduled_posts WHERE id = $1 AND user_id = $2`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

// GetDue returns every scheduled post whose time falls at or before
// now+buffer. There is no batch limit.
func (r *postRepository) GetDue(ctx context.Context, buffer time.Duration) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM scheduled_posts
		WHERE status = $1 AND scheduled_for <= $2
		ORDER BY scheduled_for ASC, id ASC`

	cutoff := r.now().UTC().Add(buffer)
	return r.queryPosts(ctx, query, models.PostStatusScheduled, cutoff)
}

func (r *postRepository) ListForUser(ctx context.Context, userID int64, status string, limit int) ([]*models.Post, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	if status == "" {
		query := `SELECT ` + postColumns + `
			FROM scheduled_posts
			WHERE user_id = $1
			ORDER BY scheduled_for DESC
			LIMIT $2`
		return r.queryPosts(ctx, query, userID, limit)
	}

	query := `SELECT ` + postColumns + `
		FROM scheduled_posts
		WHERE user_id = $1 AND status = $2
		ORDER BY scheduled_for DESC
		LIMIT $3`
	return r.queryPosts(ctx, query, userID, status, limit)
}

func (r *postRepository) execTransition(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return ErrNotScheduled
	}
	return nil
}

func (r *postRepository) MarkPosted(ctx context.Context, id int64, platformPostID string, postedAt time.Time) error {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			platform_post_id = $2,
			posted_at = $3,
			error_message = NULL,
			updated_at = $4
		WHERE id = $5 AND status = $6
	`
	return r.execTransition(ctx, query, models.PostStatusPosted, platformPostID, postedAt, r.now().UTC(), id, models.PostStatusScheduled)
}

func (r *postRepository) MarkFailed(ctx context.Context, id int64, message string) error {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			error_message = $2,
			updated_at = $3
		WHERE id = $4 AND status = $5
	`
	return r.execTransition(ctx, query, models.PostStatusFailed, message, r.now().UTC(), id, models.PostStatusScheduled)
}

func (r *postRepository) MarkCancelled(ctx context.Context, id int64) error {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3 AND status = $4
	`
	return r.execTransition(ctx, query, models.PostStatusCancelled, r.now().UTC(), id, models.PostStatusScheduled)
}

// Cancel reports true only when the post belongs to userID and was still
// scheduled. Anything else leaves the row untouched.
func (r *postRepository) Cancel(ctx context.Context, postID, userID int64) (bool, error) {
	query := `
		UPDATE scheduled_posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3 AND user_id = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query, models.PostStatusCancelled, r.now().UTC(), postID, userID, models.PostStatusScheduled)
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
