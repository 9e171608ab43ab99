package handlers

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/postlinehq/postline/internal/service"
)

type AuthHandler struct {
	s service.ThreadsOAuthService
}

func NewAuthHandler(s service.ThreadsOAuthService) *AuthHandler {
	return &AuthHandler{s: s}
}

func (h *AuthHandler) ThreadsAuthorize(c *fiber.Ctx) error {
	authURL, err := h.s.AuthURL()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Threads App ID not configured",
		})
	}

	return c.Redirect(authURL, fiber.StatusFound)
}

// ThreadsCallback finishes the OAuth flow. The response is a tiny HTML
// page because the flow runs in a popup opened by the frontend.
func (h *AuthHandler) ThreadsCallback(c *fiber.Ctx) error {
	if oauthErr := c.Query("error"); oauthErr != "" {
		slog.Info("threads authorization denied", "error", oauthErr)
		return h.renderResult(c, fiber.StatusBadRequest, "Connection Failed", oauthErr)
	}

	username, err := h.s.HandleCallback(c.Context(), c.Query("code"))
	if err != nil {
		slog.Error(err.Error())
		return h.renderResult(c, fiber.StatusInternalServerError, "Connection Failed", err.Error())
	}

	return h.renderResult(c, fiber.StatusOK, "Connected!", "@"+username)
}

func (h *AuthHandler) renderResult(c *fiber.Ctx, status int, title, detail string) error {
	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Status(status).SendString(fmt.Sprintf(
		`<html><body><h2>%s</h2><p>%s</p><script>setTimeout(function(){window.close()},2000);</script></body></html>`,
		title, detail,
	))
}
