package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	config "github.com/maheshrc27/socialflow/configs"
	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/platform"
	"github.com/maheshrc27/socialflow/internal/repository"
	"github.com/maheshrc27/socialflow/internal/transfer"
	"github.com/maheshrc27/socialflow/pkg/utils"
)

// TokenVault stores and resolves the tokens behind connected accounts.
type TokenVault interface {
	CredentialResolver
	Save(ctx context.Context, platformName string, userID int64, platformUserID string, tokens *platform.Tokens) (string, error)
	Delete(ctx context.Context, ref string) error
}

type PlatformService interface {
	GetAuthURL(ctx context.Context, userID int64, platformName, redirectURI string) (*transfer.OAuthURLResponse, error)
	Callback(ctx context.Context, platformName string, cb *transfer.OAuthCallback) (*models.SocialAccount, error)
	List(ctx context.Context, userID int64) ([]*transfer.SocialAccountInfo, error)
	Delete(ctx context.Context, userID, accountID int64) error
}

type platformService struct {
	cfg      config.Config
	sa       repository.SocialAccountRepository
	states   repository.OAuthStateRepository
	registry *platform.Registry
	vault    TokenVault
}

func NewPlatformService(
	cfg config.Config,
	sa repository.SocialAccountRepository,
	states repository.OAuthStateRepository,
	registry *platform.Registry,
	vault TokenVault) PlatformService {
	return &platformService{
		cfg:      cfg,
		sa:       sa,
		states:   states,
		registry: registry,
		vault:    vault,
	}
}

func (s *platformService) callbackURL(platformName string) string {
	return fmt.Sprintf("%s/auth/%s/callback", strings.TrimRight(s.cfg.APIBaseURL, "/"), platformName)
}

func (s *platformService) platformTimeout() time.Duration {
	if s.cfg.Scheduler.PlatformTimeout > 0 {
		return s.cfg.Scheduler.PlatformTimeout
	}
	return platform.DefaultTimeout
}

func (s *platformService) GetAuthURL(ctx context.Context, userID int64, platformName, redirectURI string) (*transfer.OAuthURLResponse, error) {
	adapter, err := s.registry.Get(platformName)
	if err != nil {
		return nil, invalid(fmt.Sprintf("Platform %s not supported", platformName))
	}

	if redirectURI == "" {
		redirectURI = s.callbackURL(platformName)
	}

	state, err := utils.NewStateToken()
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("error generating oauth state: %w", err)
	}

	err = s.states.Save(ctx, state, &transfer.OAuthState{
		UserID:      userID,
		Platform:    platformName,
		RedirectURI: redirectURI,
	}, s.cfg.OAuthStateTTL)
	if err != nil {
		return nil, fmt.Errorf("error saving oauth state: %w", err)
	}

	authURL, err := adapter.GetOAuthURL(ctx, redirectURI, state)
	if err != nil {
		return nil, fmt.Errorf("Failed to generate OAuth URL: %w", err)
	}

	return &transfer.OAuthURLResponse{
		OAuthURL:    authURL,
		Platform:    platformName,
		RedirectURI: redirectURI,
	}, nil
}

func (s *platformService) Callback(ctx context.Context, platformName string, cb *transfer.OAuthCallback) (*models.SocialAccount, error) {
	if cb.Error != "" {
		return nil, invalid(fmt.Sprintf("Authorization denied: %s", cb.Error))
	}

	adapter, err := s.registry.Get(platformName)
	if err != nil {
		return nil, invalid(fmt.Sprintf("Platform %s not supported", platformName))
	}

	state, err := s.states.Consume(ctx, cb.State)
	if err != nil {
		return nil, fmt.Errorf("error reading oauth state: %w", err)
	}
	if state == nil || state.Platform != platformName {
		return nil, invalid("Invalid or expired OAuth state")
	}

	callCtx, cancel := context.WithTimeout(ctx, s.platformTimeout())
	defer cancel()

	tokens, err := adapter.ExchangeCodeForTokens(callCtx, platform.AuthGrant{
		Code:          cb.Code,
		RedirectURI:   state.RedirectURI,
		OAuthToken:    cb.OAuthToken,
		OAuthVerifier: cb.OAuthVerifier,
	})
	if err != nil {
		var exchangeErr *platform.AuthExchangeError
		if errors.As(err, &exchangeErr) {
			return nil, invalid(exchangeErr.Error())
		}
		return nil, fmt.Errorf("error exchanging authorization grant: %w", err)
	}

	info, err := adapter.GetUserInfo(callCtx, platform.Credentials{
		AccessToken:       tokens.AccessToken,
		AccessTokenSecret: tokens.AccessTokenSecret,
	})
	if err != nil {
		if errors.Is(err, platform.ErrNoBusinessAccount) {
			return nil, invalid(err.Error())
		}
		return nil, fmt.Errorf("error fetching account profile: %w", err)
	}

	ref, err := s.vault.Save(ctx, platformName, state.UserID, info.ID, tokens)
	if err != nil {
		return nil, err
	}

	account := &models.SocialAccount{
		UserID:           state.UserID,
		Platform:         platformName,
		PlatformUserID:   info.ID,
		PlatformUsername: info.Username,
		AccountType:      info.AccountType,
		TokenSecretRef:   ref,
		TokenExpiresAt:   tokens.ExpiresAt(time.Now().UTC()),
	}
	if _, err := s.sa.Upsert(ctx, account); err != nil {
		return nil, fmt.Errorf("error saving social account: %w", err)
	}

	slog.Info("social account connected", "user_id", state.UserID, "platform", platformName, "account_id", account.ID)
	return account, nil
}

func (s *platformService) List(ctx context.Context, userID int64) ([]*transfer.SocialAccountInfo, error) {
	accounts, err := s.sa.ListByUserID(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("error listing social accounts: %w", err)
	}

	infos := make([]*transfer.SocialAccountInfo, 0, len(accounts))
	for _, account := range accounts {
		infos = append(infos, &transfer.SocialAccountInfo{
			ID:               account.ID,
			Platform:         account.Platform,
			PlatformUserID:   account.PlatformUserID,
			PlatformUsername: account.PlatformUsername,
			AccountType:      account.AccountType,
			IsActive:         account.IsActive,
			TokenValid:       s.tokenValid(ctx, account),
			TokenExpiresAt:   account.TokenExpiresAt,
			LastUsed:         account.LastUsed,
			CreatedAt:        account.CreatedAt,
		})
	}
	return infos, nil
}

func (s *platformService) tokenValid(ctx context.Context, account *models.SocialAccount) bool {
	adapter, err := s.registry.Get(account.Platform)
	if err != nil {
		return false
	}

	creds, err := s.vault.Resolve(ctx, account)
	if err != nil {
		slog.Warn("unable to resolve credentials", "account_id", account.ID, "error", err)
		return false
	}

	callCtx, cancel := context.WithTimeout(ctx, s.platformTimeout())
	defer cancel()
	return adapter.ValidateToken(callCtx, *creds)
}

// Delete removes the stored tokens and soft-deletes the account.
func (s *platformService) Delete(ctx context.Context, userID, accountID int64) error {
	account, err := s.sa.GetForUser(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if account == nil || !account.IsActive {
		return notFound("Social account not found")
	}

	if err := s.vault.Delete(ctx, account.TokenSecretRef); err != nil {
		slog.Warn("failed to delete stored tokens", "account_id", account.ID, "error", err)
	}

	if err := s.sa.Deactivate(ctx, account.ID); err != nil {
		return fmt.Errorf("error disconnecting social account: %w", err)
	}
	return nil
}
