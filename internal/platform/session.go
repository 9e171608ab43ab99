package platform

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/postlinehq/postline/internal/models"
)

// ThreadsSessionPublisher posts to Threads by driving a headless browser
// session. It exists as a fallback for accounts connected with a username
// and password instead of an API token. The browser profile is persisted
// per username so a login survives across dispatch cycles.
//
// Unlike the API adapters there is no platform-issued post id: success is
// inferred from page state after submitting the composer, so the outcome
// carries lower confidence than an API response.
type ThreadsSessionPublisher struct {
	username   string
	password   string
	sessionDir string
	headless   bool
}

func NewThreadsSessionPublisher(username, password, sessionDir string) *ThreadsSessionPublisher {
	return &ThreadsSessionPublisher{
		username:   username,
		password:   password,
		sessionDir: sessionDir,
		headless:   true,
	}
}

func (p *ThreadsSessionPublisher) Platform() string { return models.PlatformThreads }

// Timeout is generous: page navigation and login can take far longer than
// a REST round trip.
func (p *ThreadsSessionPublisher) Timeout() time.Duration { return 3 * time.Minute }

func (p *ThreadsSessionPublisher) Publish(ctx context.Context, content string, mediaURL string) (*Result, error) {
	profileDir := filepath.Join(p.sessionDir, "threads", p.username)
	if err := os.MkdirAll(profileDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", p.headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.NoSandbox,
		chromedp.UserDataDir(profileDir),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	loggedIn, err := p.checkLogin(browserCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to check login state: %w", err)
	}

	if !loggedIn {
		slog.Info("no saved threads session, logging in", "username", p.username)
		if err := p.login(browserCtx); err != nil {
			return nil, fmt.Errorf("threads login failed: %w", err)
		}
	}

	if err := p.composePost(browserCtx, content, mediaURL); err != nil {
		return nil, fmt.Errorf("failed to compose post: %w", err)
	}

	ok, err := p.verifyPosted(browserCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to verify post: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("post not confirmed by page state")
	}

	// Session posting yields no platform post id.
	return &Result{}, nil
}

// checkLogin loads the home page and probes for the composer entry point,
// which only renders for an authenticated session.
func (p *ThreadsSessionPublisher) checkLogin(ctx context.Context) (bool, error) {
	if err := chromedp.Run(ctx,
		chromedp.Navigate("https://www.threads.net"),
		chromedp.Sleep(2*time.Second),
	); err != nil {
		return false, err
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := chromedp.Run(probeCtx,
		chromedp.WaitVisible(`div[role="button"][aria-label="Create"]`, chromedp.ByQuery),
	)
	if err != nil {
		if probeCtx.Err() != nil {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (p *ThreadsSessionPublisher) login(ctx context.Context) error {
	return chromedp.Run(ctx,
		chromedp.Navigate("https://www.threads.net/login"),
		chromedp.WaitVisible(`input[autocomplete="username"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[autocomplete="username"]`, p.username, chromedp.ByQuery),
		chromedp.SendKeys(`input[autocomplete="current-password"]`, p.password, chromedp.ByQuery),
		chromedp.Click(`div[role="button"]:has(div)`, chromedp.ByQuery),
		chromedp.Sleep(5*time.Second),
		// Landing back on the feed confirms the credentials were accepted.
		chromedp.WaitVisible(`div[role="button"][aria-label="Create"]`, chromedp.ByQuery),
	)
}

func (p *ThreadsSessionPublisher) composePost(ctx context.Context, content string, mediaURL string) error {
	text := content
	if mediaURL != "" {
		// The composer has no URL-based media attachment, so the link is
		// appended to the text body.
		text = fmt.Sprintf("%s\n%s", content, mediaURL)
	}

	return chromedp.Run(ctx,
		chromedp.Click(`div[role="button"][aria-label="Create"]`, chromedp.ByQuery),
		chromedp.WaitVisible(`div[role="textbox"]`, chromedp.ByQuery),
		chromedp.SendKeys(`div[role="textbox"]`, text, chromedp.ByQuery),
		chromedp.Sleep(time.Second),
		chromedp.Click(`div[role="button"][aria-label="Post"]`, chromedp.ByQuery),
	)
}

// verifyPosted waits for the composer dialog to close. Best effort only.
func (p *ThreadsSessionPublisher) verifyPosted(ctx context.Context) (bool, error) {
	verifyCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	err := chromedp.Run(verifyCtx,
		chromedp.WaitNotPresent(`div[role="textbox"]`, chromedp.ByQuery),
	)
	if err != nil {
		if verifyCtx.Err() != nil {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
