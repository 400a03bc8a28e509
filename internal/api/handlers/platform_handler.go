package handlers

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/socialflow/configs"
	"github.com/maheshrc27/socialflow/internal/service"
	"github.com/maheshrc27/socialflow/internal/transfer"
)

type PlatformHandler struct {
	ps  service.PlatformService
	cfg config.Config
}

func NewPlatformHandler(ps service.PlatformService, cfg config.Config) *PlatformHandler {
	return &PlatformHandler{
		ps:  ps,
		cfg: cfg,
	}
}

func (h *PlatformHandler) GetOAuthURL(c *fiber.Ctx) error {
	resp, err := h.ps.GetAuthURL(c.Context(), GetUserID(c), c.Params("platform"), c.Query("redirect_uri"))
	if err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

// CallbackHandler is hit by the network's redirect, so the user is known only
// through the stored state.
func (h *PlatformHandler) CallbackHandler(c *fiber.Ctx) error {
	platformName := c.Params("platform")

	account, err := h.ps.Callback(c.Context(), platformName, &transfer.OAuthCallback{
		State:         c.Query("state"),
		Code:          c.Query("code"),
		OAuthToken:    c.Query("oauth_token"),
		OAuthVerifier: c.Query("oauth_verifier"),
		Error:         c.Query("error"),
	})
	if err != nil {
		slog.Info(err.Error())
		return c.Redirect(h.accountsURL(url.Values{
			"platform": {platformName},
			"error":    {err.Error()},
		}), fiber.StatusTemporaryRedirect)
	}

	return c.Redirect(h.accountsURL(url.Values{
		"platform":   {platformName},
		"connected":  {"true"},
		"account_id": {fmt.Sprintf("%d", account.ID)},
	}), fiber.StatusTemporaryRedirect)
}

func (h *PlatformHandler) accountsURL(params url.Values) string {
	return fmt.Sprintf("%s/dashboard/accounts?%s", strings.TrimSuffix(h.cfg.FrontendURL, "/"), params.Encode())
}

func (h *PlatformHandler) ListSocialAccounts(c *fiber.Ctx) error {
	accountList, err := h.ps.List(c.Context(), GetUserID(c))
	if err != nil {
		return HandleError(c, err)
	}
	if accountList == nil {
		accountList = []*transfer.SocialAccountInfo{}
	}

	return c.Status(fiber.StatusOK).JSON(accountList)
}

func (h *PlatformHandler) DeleteSocialAccount(c *fiber.Ctx) error {
	accountID, ok := paramID(c, "account_id")
	if !ok {
		return invalidID(c, "account_id")
	}

	if err := h.ps.Delete(c.Context(), GetUserID(c), accountID); err != nil {
		return HandleError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "Social account disconnected",
	})
}
