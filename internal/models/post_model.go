package models

import (
	"database/sql"
	"time"
)

type SocialPost struct {
	ID             int64          `db:"id" json:"id"`
	Content        string         `db:"content" json:"content"`
	MediaURL       sql.NullString `db:"media_url" json:"media_url"`
	Platform       string         `db:"platform" json:"platform"`
	ScheduledAt    time.Time      `db:"scheduled_at" json:"scheduled_at"`
	Status         string         `db:"status" json:"status"` // pending, published, failed
	ExternalPostID sql.NullString `db:"external_post_id" json:"external_post_id"`
	ErrorMessage   sql.NullString `db:"error_message" json:"error_message"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      sql.NullTime   `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusPending   = "pending"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
)

const (
	PlatformTwitter  = "twitter"
	PlatformThreads  = "threads"
	PlatformLinkedin = "linkedin"
	PlatformFacebook = "facebook"
)

// Per-platform caption limits, enforced at creation time only.
var contentLimits = map[string]int{
	PlatformTwitter:  280,
	PlatformThreads:  500,
	PlatformLinkedin: 3000,
	PlatformFacebook: 63206,
}

const DefaultContentLimit = 3000

func ContentLimit(platform string) int {
	if limit, ok := contentLimits[platform]; ok {
		return limit
	}
	return DefaultContentLimit
}
