package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/postlinehq/postline/internal/models"
	"github.com/postlinehq/postline/internal/repository"
	"github.com/postlinehq/postline/internal/service"
)

// TokenRefreshJob renews OAuth tokens that are about to expire. The
// dispatcher itself never refreshes at publish time; this cron job is the
// only place tokens get renewed, and an account it misses simply fails at
// the remote call like any other credential problem.
type TokenRefreshJob struct {
	ar repository.ConnectedAccountRepository
	ts service.ThreadsOAuthService
}

func NewTokenRefreshJob(ar repository.ConnectedAccountRepository, ts service.ThreadsOAuthService) *TokenRefreshJob {
	return &TokenRefreshJob{ar: ar, ts: ts}
}

func (j *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	now := time.Now().UTC()
	windowEnd := now.Add(24 * time.Hour)

	accounts, err := j.ar.ListExpiring(ctx, now, windowEnd)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, account := range accounts {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(account *models.ConnectedAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			switch account.Platform {
			case models.PlatformThreads:
				if err := j.ts.RefreshToken(ctx, account); err != nil {
					slog.Info("unable to refresh threads token", "username", account.Username, "error", err)
				}
			}
		}(account)
	}

	wg.Wait()
}
