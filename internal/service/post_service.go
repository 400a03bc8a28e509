package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/repository"
	"github.com/maheshrc27/socialflow/internal/transfer"
)

// PostExecutor publishes one post and records the outcome on it.
type PostExecutor interface {
	ExecutePost(ctx context.Context, post *models.Post) bool
}

type PostService interface {
	Schedule(ctx context.Context, userID int64, req *transfer.SchedulePostRequest) (*transfer.SchedulePostResponse, error)
	Immediate(ctx context.Context, userID int64, req *transfer.SchedulePostRequest) (*transfer.ImmediatePostResponse, error)
	List(ctx context.Context, userID int64, status string, limit int) ([]*transfer.PostInfo, error)
	Cancel(ctx context.Context, userID, postID int64) error
}

type postService struct {
	db  *sql.DB
	pr  repository.PostRepository
	ac  repository.SocialAccountRepository
	ex  PostExecutor
	now func() time.Time
}

func NewPostService(
	db *sql.DB,
	pr repository.PostRepository,
	ac repository.SocialAccountRepository,
	ex PostExecutor) PostService {
	return &postService{
		db:  db,
		pr:  pr,
		ac:  ac,
		ex:  ex,
		now: time.Now,
	}
}

type scheduledPost struct {
	post    *models.Post
	account *models.SocialAccount
}

func (s *postService) validate(ctx context.Context, userID int64, req *transfer.SchedulePostRequest) ([]*models.SocialAccount, error) {
	if req == nil {
		return nil, invalid("Request body is required")
	}

	ids := uniqueIDs(req.SocialAccountIDs)
	if len(ids) == 0 {
		return nil, invalid("At least one social account must be specified")
	}

	if req.ContentText == "" && len(req.MediaURLs) == 0 {
		return nil, invalid("Post must have content text or media")
	}

	if req.MediaType == "" {
		req.MediaType = inferMediaType(req.MediaURLs)
	}
	if !models.IsValidMediaType(req.MediaType) {
		return nil, invalid(fmt.Sprintf("Invalid media type %q", req.MediaType))
	}

	accounts := make([]*models.SocialAccount, 0, len(ids))
	for _, id := range ids {
		account, err := s.ac.GetForUser(ctx, id, userID)
		if err != nil {
			return nil, err
		}
		if account == nil || !account.IsActive {
			return nil, invalid("One or more social accounts not found or not owned by user")
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// create inserts one post per account in a single transaction.
func (s *postService) create(ctx context.Context, userID int64, req *transfer.SchedulePostRequest, scheduledFor time.Time) (created []scheduledPost, err error) {
	accounts, err := s.validate(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	for _, account := range accounts {
		post := &models.Post{
			UserID:          userID,
			SocialAccountID: account.ID,
			ContentText:     req.ContentText,
			MediaURLs:       req.MediaURLs,
			MediaType:       req.MediaType,
			ScheduledFor:    scheduledFor,
		}
		if _, err = s.pr.Create(ctx, tx, post); err != nil {
			return nil, fmt.Errorf("error creating post: %w", err)
		}
		created = append(created, scheduledPost{post: post, account: account})
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}

func (s *postService) Schedule(ctx context.Context, userID int64, req *transfer.SchedulePostRequest) (*transfer.SchedulePostResponse, error) {
	scheduledFor := s.now().UTC()
	if req != nil && req.ScheduledFor != nil {
		scheduledFor = req.ScheduledFor.UTC()
	}

	created, err := s.create(ctx, userID, req, scheduledFor)
	if err != nil {
		return nil, err
	}

	summaries := make([]*transfer.ScheduledPostSummary, 0, len(created))
	for _, c := range created {
		summaries = append(summaries, &transfer.ScheduledPostSummary{
			ID:               c.post.ID,
			Platform:         c.account.Platform,
			PlatformUsername: c.account.PlatformUsername,
			ScheduledFor:     c.post.ScheduledFor,
			Status:           c.post.Status,
		})
	}

	slog.Info("posts scheduled", "user_id", userID, "count", len(summaries), "scheduled_for", scheduledFor)
	return &transfer.SchedulePostResponse{
		Success:        true,
		Message:        fmt.Sprintf("Scheduled %d posts", len(summaries)),
		ScheduledPosts: summaries,
	}, nil
}

// Immediate creates the posts due now and runs them through the executor
// before returning, ignoring any scheduled_for in the request.
func (s *postService) Immediate(ctx context.Context, userID int64, req *transfer.SchedulePostRequest) (*transfer.ImmediatePostResponse, error) {
	created, err := s.create(ctx, userID, req, s.now().UTC())
	if err != nil {
		return nil, err
	}

	results := make([]*transfer.ImmediatePostResult, 0, len(created))
	for _, c := range created {
		success := s.ex.ExecutePost(ctx, c.post)

		result := &transfer.ImmediatePostResult{
			PostID:   c.post.ID,
			Platform: c.account.Platform,
			Success:  success,
			Status:   c.post.Status,
		}

		post, err := s.pr.GetByID(ctx, c.post.ID)
		if err != nil {
			slog.Error("failed to reload post", "post_id", c.post.ID, "error", err)
		} else if post != nil {
			result.Status = post.Status
			result.PlatformPostID = post.PlatformPostID
			result.ErrorMessage = post.ErrorMessage
		}
		results = append(results, result)
	}

	return &transfer.ImmediatePostResponse{
		Success: true,
		Message: "Posts executed immediately",
		Results: results,
	}, nil
}

func (s *postService) List(ctx context.Context, userID int64, status string, limit int) ([]*transfer.PostInfo, error) {
	if status != "" && !models.IsValidPostStatus(status) {
		return nil, invalid(fmt.Sprintf("Invalid status filter %q", status))
	}

	posts, err := s.pr.ListForUser(ctx, userID, status, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing posts: %w", err)
	}

	accounts := make(map[int64]*models.SocialAccount)
	infos := make([]*transfer.PostInfo, 0, len(posts))
	for _, post := range posts {
		account, ok := accounts[post.SocialAccountID]
		if !ok {
			account, err = s.ac.GetByID(ctx, post.SocialAccountID)
			if err != nil {
				return nil, fmt.Errorf("error loading social account: %w", err)
			}
			accounts[post.SocialAccountID] = account
		}

		info := &transfer.PostInfo{
			ID:               post.ID,
			ContentText:      post.ContentText,
			MediaURLs:        post.MediaURLs,
			MediaType:        post.MediaType,
			ScheduledFor:     post.ScheduledFor,
			Status:           post.Status,
			Platform:         "unknown",
			PlatformUsername: "unknown",
			PlatformPostID:   post.PlatformPostID,
			PostedAt:         post.PostedAt,
			ErrorMessage:     post.ErrorMessage,
			CreatedAt:        post.CreatedAt,
		}
		if account != nil {
			info.Platform = account.Platform
			info.PlatformUsername = account.PlatformUsername
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (s *postService) Cancel(ctx context.Context, userID, postID int64) error {
	ok, err := s.pr.Cancel(ctx, postID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return notFound("Scheduled post not found or cannot be cancelled")
	}
	return nil
}
