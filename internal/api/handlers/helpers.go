package handlers

import (
	"time"

	"github.com/postlinehq/postline/internal/models"
	"github.com/postlinehq/postline/internal/transfer"
)

func toPostResponse(post *models.SocialPost) *transfer.PostResponse {
	resp := &transfer.PostResponse{
		ID:          post.ID,
		Content:     post.Content,
		Platform:    post.Platform,
		ScheduledAt: post.ScheduledAt.UTC(),
		Status:      post.Status,
		CreatedAt:   post.CreatedAt.UTC(),
	}
	if post.MediaURL.Valid {
		resp.MediaURL = &post.MediaURL.String
	}
	if post.ExternalPostID.Valid {
		resp.ExternalPostID = &post.ExternalPostID.String
	}
	if post.ErrorMessage.Valid {
		resp.ErrorMessage = &post.ErrorMessage.String
	}
	if post.UpdatedAt.Valid {
		updatedAt := post.UpdatedAt.Time.UTC().Format(time.RFC3339)
		resp.UpdatedAt = &updatedAt
	}
	return resp
}

func toPostResponses(posts []*models.SocialPost) []*transfer.PostResponse {
	responses := make([]*transfer.PostResponse, 0, len(posts))
	for _, post := range posts {
		responses = append(responses, toPostResponse(post))
	}
	return responses
}
