package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/repository"
	"github.com/maheshrc27/socialflow/pkg/utils"
)

const MaxApiKeys = 5

var ErrUnknownApiKey = errors.New("Key doesn't exist")

type ApiKeyService interface {
	Create(ctx context.Context, userID int64) (*models.ApiKey, error)
	List(ctx context.Context, userID int64) ([]*models.ApiKey, error)
	GetUserID(ctx context.Context, apiKey string) (int64, error)
	RemoveAPIKey(ctx context.Context, userID, keyID int64) error
}

type apiKeyService struct {
	k   repository.ApiKeyRepository
	now func() time.Time
}

func NewApiKeyService(k repository.ApiKeyRepository) ApiKeyService {
	return &apiKeyService{
		k:   k,
		now: time.Now,
	}
}

// Create returns the only copy of the full key the caller will ever see.
func (s *apiKeyService) Create(ctx context.Context, userID int64) (*models.ApiKey, error) {
	count, err := s.k.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if count >= MaxApiKeys {
		return nil, invalid(fmt.Sprintf("Only %d API Keys can be created.", MaxApiKeys))
	}

	key, shown, err := utils.NewAPIKey()
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error generating API key: %w", err)
	}

	apiKey := &models.ApiKey{
		UserID:  userID,
		KeyHash: utils.HashAPIKey(key),
		Prefix:  shown,
	}
	if _, err := s.k.Create(ctx, apiKey); err != nil {
		return nil, fmt.Errorf("error saving API key: %w", err)
	}

	apiKey.Key = key
	return apiKey, nil
}

func (s *apiKeyService) GetUserID(ctx context.Context, apiKey string) (int64, error) {
	k, err := s.k.GetByHash(ctx, utils.HashAPIKey(apiKey))
	if err != nil {
		return 0, err
	}
	if k == nil {
		return 0, ErrUnknownApiKey
	}

	if err := s.k.TouchLastUsed(ctx, k.ID, s.now().UTC()); err != nil {
		slog.Warn("failed to update api key last_used_at", "key_id", k.ID, "error", err)
	}
	return k.UserID, nil
}

func (s *apiKeyService) List(ctx context.Context, userID int64) ([]*models.ApiKey, error) {
	apiKeys, err := s.k.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing API keys: %w", err)
	}
	return apiKeys, nil
}

func (s *apiKeyService) RemoveAPIKey(ctx context.Context, userID, keyID int64) error {
	if keyID <= 0 {
		return invalid("KeyID is not valid")
	}

	removed, err := s.k.Remove(ctx, keyID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return notFound(ErrUnknownApiKey.Error())
	}
	return nil
}
