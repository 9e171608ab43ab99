package platform

import (
	"context"
	"time"
)

// Result is what a successful publish returns. PostID is the identifier
// assigned by the remote platform; adapters that cannot observe one (the
// automated-session fallback) leave it empty.
type Result struct {
	PostID string
}

// Publisher is the capability every platform integration implements.
// Expected remote failures (non-2xx, missing fields) and transport
// failures both come back as an error value, never a panic; the
// dispatcher turns any error into a failed post.
type Publisher interface {
	Platform() string
	Publish(ctx context.Context, content string, mediaURL string) (*Result, error)

	// Timeout bounds a single Publish call. Browser-driven adapters get a
	// longer budget than plain REST calls.
	Timeout() time.Duration
}
