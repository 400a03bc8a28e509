package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/socialflow/internal/transfer"
	"github.com/redis/go-redis/v9"
)

const oauthStatePrefix = "oauth_state:"

// OAuthStateRepository keeps pending authorization attempts in Redis so any
// instance can finish a callback and abandoned attempts expire on their own.
type OAuthStateRepository interface {
	Save(ctx context.Context, state string, data *transfer.OAuthState, ttl time.Duration) error
	// Consume returns the stored attempt and deletes it. A missing or
	// expired state yields nil, nil.
	Consume(ctx context.Context, state string) (*transfer.OAuthState, error)
}

type oauthStateRepository struct {
	rdb redis.UniversalClient
}

func NewOAuthStateRepository(rdb redis.UniversalClient) OAuthStateRepository {
	return &oauthStateRepository{rdb: rdb}
}

func (r *oauthStateRepository) Save(ctx context.Context, state string, data *transfer.OAuthState, ttl time.Duration) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("error encoding oauth state: %w", err)
	}

	if err := r.rdb.Set(ctx, oauthStatePrefix+state, payload, ttl).Err(); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *oauthStateRepository) Consume(ctx context.Context, state string) (*transfer.OAuthState, error) {
	if state == "" {
		return nil, nil
	}

	payload, err := r.rdb.GetDel(ctx, oauthStatePrefix+state).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	var data transfer.OAuthState
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("error decoding oauth state: %w", err)
	}
	return &data, nil
}
