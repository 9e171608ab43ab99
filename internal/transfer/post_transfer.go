package transfer

import "time"

type PostCreation struct {
	Content     string    `json:"content"`
	MediaURL    string    `json:"media_url"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Platform    string    `json:"platform"`
}

type PostResponse struct {
	ID             int64     `json:"id"`
	Content        string    `json:"content"`
	MediaURL       *string   `json:"media_url"`
	Platform       string    `json:"platform"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	Status         string    `json:"status"`
	ExternalPostID *string   `json:"external_post_id"`
	ErrorMessage   *string   `json:"error_message"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      *string   `json:"updated_at"`
}
