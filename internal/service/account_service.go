package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/postlinehq/postline/internal/models"
	"github.com/postlinehq/postline/internal/repository"
	"github.com/postlinehq/postline/internal/secret"
	"github.com/postlinehq/postline/internal/transfer"
)

var ErrAccountNotFound = errors.New("account not found")

type AccountService interface {
	Status(ctx context.Context) ([]*transfer.AccountStatus, error)
	ConnectWithPassword(ctx context.Context, platform, username, password string) error
	Disconnect(ctx context.Context, platform string) error
}

type accountService struct {
	ar     repository.ConnectedAccountRepository
	cipher *secret.Cipher
}

func NewAccountService(ar repository.ConnectedAccountRepository, cipher *secret.Cipher) AccountService {
	return &accountService{ar: ar, cipher: cipher}
}

func (s *accountService) Status(ctx context.Context) ([]*transfer.AccountStatus, error) {
	accounts, err := s.ar.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing accounts: %w", err)
	}

	statuses := make([]*transfer.AccountStatus, 0, len(accounts))
	for _, account := range accounts {
		status := &transfer.AccountStatus{
			Platform:    account.Platform,
			Username:    account.Username,
			ConnectedAt: account.ConnectedAt.UTC().Format(time.RFC3339),
		}
		if account.LastUsedAt.Valid {
			lastUsed := account.LastUsedAt.Time.UTC().Format(time.RFC3339)
			status.LastUsed = &lastUsed
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// ConnectWithPassword stores a username/password pair for platforms that
// publish through the automated-session adapter. The password is
// encrypted before it ever reaches the store.
func (s *accountService) ConnectWithPassword(ctx context.Context, platform, username, password string) error {
	if username == "" || password == "" {
		err := errors.New("username and password are required")
		slog.Info(err.Error())
		return err
	}

	encrypted, err := s.cipher.Encrypt(password)
	if err != nil {
		return fmt.Errorf("error encrypting credential: %w", err)
	}

	account := &models.ConnectedAccount{
		Platform:   platform,
		Username:   username,
		AuthMethod: models.AuthMethodPassword,
		Credential: encrypted,
	}

	if _, err := s.ar.Upsert(ctx, account); err != nil {
		return fmt.Errorf("error saving account: %w", err)
	}
	return nil
}

func (s *accountService) Disconnect(ctx context.Context, platform string) error {
	deactivated, err := s.ar.Deactivate(ctx, platform)
	if err != nil {
		return fmt.Errorf("error disconnecting account: %w", err)
	}
	if !deactivated {
		slog.Info(ErrAccountNotFound.Error())
		return ErrAccountNotFound
	}
	return nil
}
