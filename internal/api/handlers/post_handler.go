package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/postlinehq/postline/internal/queue"
	"github.com/postlinehq/postline/internal/service"
	"github.com/postlinehq/postline/internal/transfer"
)

type PostHandler struct {
	s           service.PostService
	asynqClient *asynq.Client
}

func NewPostHandler(s service.PostService, asynqClient *asynq.Client) *PostHandler {
	return &PostHandler{s: s, asynqClient: asynqClient}
}

// CreatePosts accepts a single post object or an array of them.
func (h *PostHandler) CreatePosts(c *fiber.Ctx) error {
	var creations []transfer.PostCreation

	if err := json.Unmarshal(c.Body(), &creations); err != nil {
		var single transfer.PostCreation
		if err := c.BodyParser(&single); err != nil {
			slog.Info(err.Error())
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to parse request body",
			})
		}
		creations = append(creations, single)
	}

	responses := make([]*transfer.PostResponse, 0, len(creations))
	for i := range creations {
		post, delay, err := h.s.Create(c.Context(), &creations[i])
		if err != nil {
			status := fiber.StatusBadRequest
			if !isValidationError(err) {
				status = fiber.StatusInternalServerError
			}
			return c.Status(status).JSON(fiber.Map{"error": err.Error()})
		}

		// Best effort: the dispatcher's polling loop picks the post up
		// anyway if the fast-path enqueue fails.
		if err := queue.EnqueuePost(h.asynqClient, queue.PublishPostPayload{PostID: post.ID}, delay); err != nil {
			slog.Error("failed to enqueue publish task", "post_id", post.ID, "error", err)
		}

		responses = append(responses, toPostResponse(post))
	}

	return c.Status(fiber.StatusOK).JSON(responses)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	posts, err := h.s.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(toPostResponses(posts))
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	postID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	if err := h.s.Remove(c.Context(), postID); err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Post not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove post",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post deleted successfully",
	})
}

func isValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyContent) ||
		errors.Is(err, service.ErrEmptyPlatform) ||
		errors.Is(err, service.ErrContentLong) ||
		errors.Is(err, service.ErrNotFuture)
}
