package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/postlinehq/postline/internal/models"
	"github.com/postlinehq/postline/internal/service"
	"github.com/postlinehq/postline/internal/transfer"
)

type AccountHandler struct {
	s service.AccountService
}

func NewAccountHandler(s service.AccountService) *AccountHandler {
	return &AccountHandler{s: s}
}

func (h *AccountHandler) GetStatus(c *fiber.Ctx) error {
	statuses, err := h.s.Status(c.Context())
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"accounts": []*transfer.AccountStatus{}})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"accounts": statuses})
}

// ConnectThreads stores username/password credentials for the
// automated-session publisher.
func (h *AccountHandler) ConnectThreads(c *fiber.Ctx) error {
	var req transfer.ConnectAccountRequest
	if err := c.BodyParser(&req); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   "Unable to parse request body",
		})
	}

	if err := h.s.ConnectWithPassword(c.Context(), models.PlatformThreads, req.Username, req.Password); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success":  true,
		"username": req.Username,
	})
}

func (h *AccountHandler) Disconnect(c *fiber.Ctx) error {
	platform := c.Params("platform")

	if err := h.s.Disconnect(c.Context(), platform); err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"success": false,
				"error":   "Account not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"success": true})
}
