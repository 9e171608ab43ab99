package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	config "github.com/postlinehq/postline/configs"
	"github.com/postlinehq/postline/internal/models"
	"github.com/postlinehq/postline/internal/repository"
	"github.com/postlinehq/postline/internal/secret"
	"golang.org/x/oauth2"
)

const threadsGraphURL = "https://graph.threads.net"

type ThreadsOAuthService interface {
	AuthURL() (string, error)
	HandleCallback(ctx context.Context, code string) (string, error)
	RefreshToken(ctx context.Context, account *models.ConnectedAccount) error
}

type threadsOAuthService struct {
	cfg      config.Config
	ar       repository.ConnectedAccountRepository
	cipher   *secret.Cipher
	oauth    *oauth2.Config
	graphURL string
}

func NewThreadsOAuthService(cfg config.Config, ar repository.ConnectedAccountRepository, cipher *secret.Cipher) ThreadsOAuthService {
	return &threadsOAuthService{
		cfg:    cfg,
		ar:     ar,
		cipher: cipher,
		oauth: &oauth2.Config{
			ClientID:     cfg.ThreadsAppID,
			ClientSecret: cfg.ThreadsAppSecret,
			RedirectURL:  cfg.ThreadsRedirectURI,
			Scopes:       []string{"threads_basic", "threads_content_publish"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://www.threads.net/oauth/authorize",
				TokenURL: threadsGraphURL + "/oauth/access_token",
			},
		},
		graphURL: threadsGraphURL,
	}
}

func (s *threadsOAuthService) AuthURL() (string, error) {
	if s.cfg.ThreadsAppID == "" {
		err := errors.New("threads app id is not configured")
		slog.Error(err.Error())
		return "", err
	}
	return s.oauth.AuthCodeURL(""), nil
}

// HandleCallback exchanges the authorization code, resolves the profile
// username, and upserts the encrypted token. Reconnecting the same
// username updates the existing row in place.
func (s *threadsOAuthService) HandleCallback(ctx context.Context, code string) (string, error) {
	if code == "" {
		err := errors.New("no authorization code provided")
		slog.Info(err.Error())
		return "", err
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	username := s.lookupUsername(ctx, token.AccessToken)

	encrypted, err := s.cipher.Encrypt(token.AccessToken)
	if err != nil {
		return "", fmt.Errorf("error encrypting token: %w", err)
	}

	account := &models.ConnectedAccount{
		Platform:   models.PlatformThreads,
		Username:   username,
		AuthMethod: models.AuthMethodOAuth,
		Credential: encrypted,
	}
	if !token.Expiry.IsZero() {
		account.TokenExpiresAt.Time = token.Expiry.UTC()
		account.TokenExpiresAt.Valid = true
	}

	if _, err := s.ar.Upsert(ctx, account); err != nil {
		return "", fmt.Errorf("error saving account: %w", err)
	}

	slog.Info("threads account connected", "username", username)
	return username, nil
}

// lookupUsername is best effort; a profile fetch failure falls back to a
// placeholder derived from the token's user id.
func (s *threadsOAuthService) lookupUsername(ctx context.Context, accessToken string) string {
	username := "threads_user"

	reqURL := fmt.Sprintf("%s/v1.0/me?fields=id,username&access_token=%s", s.graphURL, url.QueryEscape(accessToken))
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		slog.Info(err.Error())
		return username
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return username
	}
	defer resp.Body.Close()

	var profile struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		slog.Info(err.Error())
		return username
	}

	if profile.Username != "" {
		return profile.Username
	}
	if profile.ID != "" {
		return fmt.Sprintf("user_%s", profile.ID)
	}
	return username
}

// RefreshToken exchanges a long-lived Threads token for a fresh one and
// re-encrypts it in place.
func (s *threadsOAuthService) RefreshToken(ctx context.Context, account *models.ConnectedAccount) error {
	decrypted, err := s.cipher.Decrypt(account.Credential)
	if err != nil {
		return fmt.Errorf("error decrypting token for %q: %w", account.Username, err)
	}

	reqURL := fmt.Sprintf("%s/refresh_access_token?grant_type=th_refresh_token&access_token=%s",
		s.graphURL, url.QueryEscape(decrypted))

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("threads refresh returned status %d", resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return err
	}

	encrypted, err := s.cipher.Encrypt(result.AccessToken)
	if err != nil {
		return fmt.Errorf("error encrypting refreshed token: %w", err)
	}

	expiresAt := time.Now().UTC().Add(time.Duration(result.ExpiresIn) * time.Second)
	if err := s.ar.SetCredential(ctx, account.ID, encrypted, expiresAt); err != nil {
		return fmt.Errorf("error saving refreshed token: %w", err)
	}

	return nil
}
