package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/postlinehq/postline/internal/models"
)

const threadsAPIBaseURL = "https://graph.threads.net/v1.0"

// ThreadsPublisher posts through the official Threads Graph API. Publishing
// is a two-phase protocol: create a media container, then publish it with a
// second call referencing the container id. A container failure
// short-circuits without attempting the publish step.
type ThreadsPublisher struct {
	accessToken string
	baseURL     string
	client      *http.Client
}

func NewThreadsPublisher(accessToken string) *ThreadsPublisher {
	return &ThreadsPublisher{
		accessToken: accessToken,
		baseURL:     threadsAPIBaseURL,
		client:      http.DefaultClient,
	}
}

func (p *ThreadsPublisher) Platform() string { return models.PlatformThreads }

func (p *ThreadsPublisher) Timeout() time.Duration { return 30 * time.Second }

func (p *ThreadsPublisher) Publish(ctx context.Context, content string, mediaURL string) (*Result, error) {
	containerID, err := p.createContainer(ctx, content, mediaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create media container: %w", err)
	}

	postID, err := p.publishContainer(ctx, containerID)
	if err != nil {
		return nil, fmt.Errorf("failed to publish container: %w", err)
	}

	return &Result{PostID: postID}, nil
}

func (p *ThreadsPublisher) createContainer(ctx context.Context, content string, mediaURL string) (string, error) {
	payload := map[string]string{
		"media_type":   "TEXT",
		"text":         content,
		"access_token": p.accessToken,
	}
	if mediaURL != "" {
		payload["media_type"] = "IMAGE"
		payload["image_url"] = mediaURL
	}

	id, err := p.post(ctx, p.baseURL+"/me/threads", payload)
	if err != nil {
		return "", err
	}

	slog.Info("created threads container", "container_id", id)
	return id, nil
}

func (p *ThreadsPublisher) publishContainer(ctx context.Context, containerID string) (string, error) {
	payload := map[string]string{
		"creation_id":  containerID,
		"access_token": p.accessToken,
	}

	return p.post(ctx, p.baseURL+"/me/threads_publish", payload)
}

// post issues a JSON POST and returns the id field of the response body.
func (p *ThreadsPublisher) post(ctx context.Context, url string, payload map[string]string) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", fmt.Errorf("threads request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("threads returned status %d: %s", resp.StatusCode, respBody)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("no id returned from threads")
	}

	return result.ID, nil
}
