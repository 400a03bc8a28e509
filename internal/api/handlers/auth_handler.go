package handlers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/socialflow/configs"
	"github.com/maheshrc27/socialflow/internal/service"
	"github.com/maheshrc27/socialflow/pkg/utils"
)

const loginStateCookie = "login_state"

type AuthHandler struct {
	s   service.AuthService
	cfg config.Config
}

func NewAuthHandler(cfg config.Config, service service.AuthService) *AuthHandler {
	return &AuthHandler{s: service, cfg: cfg}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	state, err := utils.NewStateToken()
	if err != nil {
		return HandleError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     loginStateCookie,
		Value:    state,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/",
		Expires:  time.Now().Add(h.cfg.OAuthStateTTL),
	})

	return c.Redirect(h.s.LoginURL(state))
}

func (h *AuthHandler) LoginCallbackHandler(c *fiber.Ctx) error {
	state := c.Query("state")
	if state == "" || state != c.Cookies(loginStateCookie) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid or expired OAuth state",
		})
	}
	c.ClearCookie(loginStateCookie)

	userID, err := h.s.LoginCallback(c.Context(), c.Query("code"))
	if err != nil {
		slog.Info(err.Error())
		return HandleError(c, err)
	}

	token, err := utils.GenerateToken(h.cfg.SecretKey, fmt.Sprintf("%d", userID), h.cfg.SessionTokenDuration)
	if err != nil {
		return HandleError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		HTTPOnly: true,
		Secure:   false,
		SameSite: fiber.CookieSameSiteNoneMode,
		Path:     "/",
		Expires:  time.Now().Add(h.cfg.SessionTokenDuration),
	})

	return c.Redirect(h.cfg.FrontendURL, fiber.StatusTemporaryRedirect)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:   h.cfg.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	return c.SendStatus(fiber.StatusOK)
}
