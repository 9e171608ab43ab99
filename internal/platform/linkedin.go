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

const linkedinPostsURL = "https://api.linkedin.com/v2/ugcPosts"

// LinkedinPublisher posts text shares through the ugcPosts endpoint with a
// bearer token. Media beyond the share text is not attached; a media URL,
// if present, is appended to the commentary.
type LinkedinPublisher struct {
	accessToken string
	personURN   string
	baseURL     string
	client      *http.Client
}

func NewLinkedinPublisher(accessToken, personURN string) *LinkedinPublisher {
	return &LinkedinPublisher{
		accessToken: accessToken,
		personURN:   personURN,
		baseURL:     linkedinPostsURL,
		client:      http.DefaultClient,
	}
}

func (p *LinkedinPublisher) Platform() string { return models.PlatformLinkedin }

func (p *LinkedinPublisher) Timeout() time.Duration { return 30 * time.Second }

func (p *LinkedinPublisher) Publish(ctx context.Context, content string, mediaURL string) (*Result, error) {
	commentary := content
	if mediaURL != "" {
		commentary = fmt.Sprintf("%s\n%s", content, mediaURL)
	}

	payload := map[string]interface{}{
		"author":         fmt.Sprintf("urn:li:person:%s", p.personURN),
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]interface{}{
			"com.linkedin.ugc.ShareContent": map[string]interface{}{
				"shareCommentary": map[string]string{
					"text": commentary,
				},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("linkedin request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("linkedin returned status %d: %s", resp.StatusCode, respBody)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("error parsing response: %w", err)
	}

	return &Result{PostID: result.ID}, nil
}
