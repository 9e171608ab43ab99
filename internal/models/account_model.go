package models

import (
	"database/sql"
	"time"
)

type ConnectedAccount struct {
	ID             int64        `db:"id" json:"id"`
	Platform       string       `db:"platform" json:"platform"`
	Username       string       `db:"username" json:"username"`
	AuthMethod     string       `db:"auth_method" json:"auth_method"` // oauth, password
	Credential     string       `db:"credential" json:"-"`            // always ciphertext
	TokenExpiresAt sql.NullTime `db:"token_expires_at" json:"token_expires_at"`
	IsActive       bool         `db:"is_active" json:"is_active"`
	ConnectedAt    time.Time    `db:"connected_at" json:"connected_at"`
	LastUsedAt     sql.NullTime `db:"last_used_at" json:"last_used_at"`
}

const (
	AuthMethodOAuth    = "oauth"
	AuthMethodPassword = "password"
)
