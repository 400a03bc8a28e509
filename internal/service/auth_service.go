package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	config "github.com/maheshrc27/socialflow/configs"
	"github.com/maheshrc27/socialflow/internal/models"
	"github.com/maheshrc27/socialflow/internal/repository"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var googleScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

type AuthService interface {
	LoginURL(state string) string
	LoginCallback(ctx context.Context, code string) (int64, error)
}

type authService struct {
	cfg         config.Config
	u           repository.UserRepository
	endpoint    oauth2.Endpoint
	userInfoURL string
}

func NewAuthService(cfg config.Config, u repository.UserRepository) AuthService {
	return &authService{
		cfg:         cfg,
		u:           u,
		endpoint:    google.Endpoint,
		userInfoURL: googleUserInfoURL,
	}
}

func (s *authService) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.GoogleClientID,
		ClientSecret: s.cfg.GoogleClientSecret,
		RedirectURL:  s.cfg.GoogleRedirectURI,
		Scopes:       googleScopes,
		Endpoint:     s.endpoint,
	}
}

func (s *authService) LoginURL(state string) string {
	return s.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (s *authService) LoginCallback(ctx context.Context, code string) (int64, error) {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return 0, invalid(err.Error())
	}

	oauth2Config := s.oauth2Config()
	if oauth2Config.ClientID == "" || oauth2Config.ClientSecret == "" || oauth2Config.RedirectURL == "" {
		err := errors.New("OAuth2 configuration is incomplete")
		slog.Info(err.Error())
		return 0, err
	}

	token, err := oauth2Config.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return 0, fmt.Errorf("error exchanging login code: %w", err)
	}

	userInfo, err := GetUserInfo(oauth2Config.Client(ctx, token), s.userInfoURL)
	if err != nil {
		return 0, err
	}

	user, err := s.u.GetByEmail(ctx, userInfo.Email)
	if err != nil {
		return 0, err
	}

	if user == nil {
		userID, err := s.u.Create(ctx, &models.User{
			GoogleID:       userInfo.ID,
			Email:          userInfo.Email,
			Name:           userInfo.Name,
			ProfilePicture: userInfo.Picture,
		})
		if err != nil {
			return 0, err
		}
		slog.Info("user created", "user_id", userID)
		return userID, nil
	}

	if !user.IsActive {
		return 0, invalid("User account is disabled")
	}

	if user.NeedsGoogleLink() {
		if err := s.u.LinkGoogle(ctx, user.ID, userInfo.ID, userInfo.Picture); err != nil {
			return 0, err
		}
	}

	return user.ID, nil
}
