package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/repository"
)

// SecretRemover drops a stored token payload by reference.
type SecretRemover interface {
	Delete(ctx context.Context, ref string) error
}

type UserService interface {
	GetUserInfo(ctx context.Context, id int64) (*models.User, error)
	RemoveUser(ctx context.Context, userID int64) error
}

type userService struct {
	u       repository.UserRepository
	ac      repository.SocialAccountRepository
	secrets SecretRemover
}

func NewUserService(u repository.UserRepository, ac repository.SocialAccountRepository, secrets SecretRemover) UserService {
	return &userService{
		u:       u,
		ac:      ac,
		secrets: secrets,
	}
}

func (s *userService) GetUserInfo(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.u.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting user info: %w", err)
	}
	if user == nil {
		return nil, notFound("User doesn't exist")
	}
	return user, nil
}

// RemoveUser deletes the user's stored platform tokens, then the user row.
// Accounts and posts go with it through the foreign keys.
func (s *userService) RemoveUser(ctx context.Context, userID int64) error {
	accounts, err := s.ac.ListByUserID(ctx, userID, false)
	if err != nil {
		return err
	}

	for _, acc := range accounts {
		if err := s.secrets.Delete(ctx, acc.TokenSecretRef); err != nil {
			return fmt.Errorf("error deleting tokens for account %d: %w", acc.ID, err)
		}
	}

	if err := s.u.Remove(ctx, userID); err != nil {
		return err
	}
	slog.Info("user removed", "user_id", userID, "accounts", len(accounts))
	return nil
}
