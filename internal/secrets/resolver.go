package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/platform"
)

// ErrCredentialNotFound means the account has no usable token payload. It is
// permanent for any post that depends on the account.
var ErrCredentialNotFound = errors.New("credential not found")

const DefaultPrefix = "social-tokens"

type Resolver struct {
	store  Store
	prefix string
}

func NewResolver(store Store, prefix string) *Resolver {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Resolver{store: store, prefix: prefix}
}

// SecretName is the vault name for one connected account.
func (r *Resolver) SecretName(platformName string, userID int64, platformUserID string) string {
	return fmt.Sprintf("%s/%s/%d/%s", r.prefix, platformName, userID, platformUserID)
}

// Save writes the token payload and returns the reference to keep on the
// account row.
func (r *Resolver) Save(ctx context.Context, platformName string, userID int64, platformUserID string, tokens *platform.Tokens) (string, error) {
	payload, err := json.Marshal(tokens)
	if err != nil {
		return "", fmt.Errorf("error encoding tokens: %w", err)
	}
	ref, err := r.store.Put(ctx, r.SecretName(platformName, userID, platformUserID), string(payload))
	if err != nil {
		return "", fmt.Errorf("error storing tokens: %w", err)
	}
	return ref, nil
}

// Tokens reads the raw payload behind an account reference.
func (r *Resolver) Tokens(ctx context.Context, ref string) (*platform.Tokens, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: account has no token reference", ErrCredentialNotFound)
	}

	raw, err := r.store.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrSecretNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrCredentialNotFound, err)
		}
		return nil, err
	}

	var tokens platform.Tokens
	if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
		return nil, fmt.Errorf("error decoding tokens: %w", err)
	}
	if tokens.AccessToken == "" {
		return nil, fmt.Errorf("%w: access token is empty", ErrCredentialNotFound)
	}
	return &tokens, nil
}

// Resolve produces the credentials an adapter needs to act for account.
func (r *Resolver) Resolve(ctx context.Context, account *models.SocialAccount) (*platform.Credentials, error) {
	tokens, err := r.Tokens(ctx, account.TokenSecretRef)
	if err != nil {
		return nil, err
	}

	creds := &platform.Credentials{
		AccessToken:       tokens.AccessToken,
		AccessTokenSecret: tokens.AccessTokenSecret,
		AccountID:         account.PlatformUserID,
	}
	if account.Platform == models.PlatformLinkedIn && account.AccountType == models.AccountTypePage {
		creds.TargetURN = platform.OrganizationURN(account.PlatformUserID)
	}
	return creds, nil
}

func (r *Resolver) Delete(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	return r.store.Delete(ctx, ref)
}
