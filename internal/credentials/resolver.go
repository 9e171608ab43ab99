package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	config "github.com/postlinehq/postline/configs"
	"github.com/postlinehq/postline/internal/models"
	"github.com/postlinehq/postline/internal/platform"
	"github.com/postlinehq/postline/internal/repository"
	"github.com/postlinehq/postline/internal/secret"
)

var (
	ErrNoCredentials    = errors.New("no credentials configured")
	ErrDecryptionFailed = errors.New("failed to decrypt stored credential")
)

type resolveFunc func(ctx context.Context) (platform.Publisher, *models.ConnectedAccount, error)

// Resolver turns a platform name into a ready publisher by walking the
// credential chain: explicit environment override first, then the active
// connected account, decrypted with the injected cipher. Platforms without
// a registered integration fall through to the simulation publisher.
//
// The resolver never mutates store state; last-used bookkeeping is the
// dispatcher's call to make after a successful publish.
type Resolver struct {
	cfg      *config.Config
	accounts repository.ConnectedAccountRepository
	cipher   *secret.Cipher
	chain    map[string]resolveFunc
}

func NewResolver(cfg *config.Config, accounts repository.ConnectedAccountRepository, cipher *secret.Cipher) *Resolver {
	r := &Resolver{
		cfg:      cfg,
		accounts: accounts,
		cipher:   cipher,
	}
	r.chain = map[string]resolveFunc{
		models.PlatformLinkedin: r.resolveLinkedin,
		models.PlatformThreads:  r.resolveThreads,
	}
	return r
}

// Resolve returns the publisher for the platform and, when the credentials
// came from the store, the account row they came from.
func (r *Resolver) Resolve(ctx context.Context, platformName string) (platform.Publisher, *models.ConnectedAccount, error) {
	if fn, ok := r.chain[platformName]; ok {
		return fn(ctx)
	}
	return platform.NewSimulationPublisher(platformName), nil, nil
}

func (r *Resolver) resolveLinkedin(ctx context.Context) (platform.Publisher, *models.ConnectedAccount, error) {
	if r.cfg.LinkedinAccessToken != "" && r.cfg.LinkedinPersonURN != "" {
		return platform.NewLinkedinPublisher(r.cfg.LinkedinAccessToken, r.cfg.LinkedinPersonURN), nil, nil
	}

	account, err := r.accounts.GetActive(ctx, models.PlatformLinkedin)
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		return nil, nil, fmt.Errorf("linkedin: %w", ErrNoCredentials)
	}

	token, err := r.decryptCredential(account)
	if err != nil {
		slog.Error(err.Error())
		return nil, nil, fmt.Errorf("linkedin: %w", ErrNoCredentials)
	}

	// For store-backed LinkedIn accounts the username column holds the
	// person URN the token was issued for.
	return platform.NewLinkedinPublisher(token, account.Username), account, nil
}

func (r *Resolver) resolveThreads(ctx context.Context) (platform.Publisher, *models.ConnectedAccount, error) {
	if r.cfg.ThreadsAccessToken != "" {
		return platform.NewThreadsPublisher(r.cfg.ThreadsAccessToken), nil, nil
	}
	if r.cfg.ThreadsUsername != "" && r.cfg.ThreadsPassword != "" {
		return platform.NewThreadsSessionPublisher(r.cfg.ThreadsUsername, r.cfg.ThreadsPassword, r.cfg.SessionDir), nil, nil
	}

	account, err := r.accounts.GetActive(ctx, models.PlatformThreads)
	if err != nil {
		return nil, nil, err
	}
	if account == nil {
		return nil, nil, fmt.Errorf("threads: %w", ErrNoCredentials)
	}

	plaintext, err := r.decryptCredential(account)
	if err != nil {
		slog.Error(err.Error())
		return nil, nil, fmt.Errorf("threads: %w", ErrNoCredentials)
	}

	switch account.AuthMethod {
	case models.AuthMethodPassword:
		return platform.NewThreadsSessionPublisher(account.Username, plaintext, r.cfg.SessionDir), account, nil
	default:
		return platform.NewThreadsPublisher(plaintext), account, nil
	}
}

func (r *Resolver) decryptCredential(account *models.ConnectedAccount) (string, error) {
	plaintext, err := r.cipher.Decrypt(account.Credential)
	if err != nil {
		return "", fmt.Errorf("%s account %q: %w: %v", account.Platform, account.Username, ErrDecryptionFailed, err)
	}
	return plaintext, nil
}
