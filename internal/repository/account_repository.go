package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/postlinehq/postline/internal/models"
)

type ConnectedAccountRepository interface {
	GetActive(ctx context.Context, platform string) (*models.ConnectedAccount, error)
	ListActive(ctx context.Context) ([]*models.ConnectedAccount, error)
	ListExpiring(ctx context.Context, from, to time.Time) ([]*models.ConnectedAccount, error)
	Upsert(ctx context.Context, account *models.ConnectedAccount) (int64, error)
	Deactivate(ctx context.Context, platform string) (bool, error)
	TouchLastUsed(ctx context.Context, id int64, now time.Time) error
	SetCredential(ctx context.Context, id int64, credential string, expiresAt time.Time) error
}

type connectedAccountRepository struct {
	db *sql.DB
}

func NewConnectedAccountRepository(db *sql.DB) ConnectedAccountRepository {
	return &connectedAccountRepository{db: db}
}

const accountColumns = `id, platform, username, auth_method, credential, token_expires_at, is_active, connected_at, last_used_at`

// GetActive returns the most recently connected active account for the
// platform, or nil when none exists.
func (r *connectedAccountRepository) GetActive(ctx context.Context, platform string) (*models.ConnectedAccount, error) {
	query := `SELECT ` + accountColumns + `
		FROM connected_accounts
		WHERE platform = $1 AND is_active = TRUE
		ORDER BY connected_at DESC
		LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, platform)

	var account models.ConnectedAccount
	err := scanAccount(row.Scan, &account)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &account, nil
}

func (r *connectedAccountRepository) ListActive(ctx context.Context) ([]*models.ConnectedAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM connected_accounts WHERE is_active = TRUE ORDER BY connected_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectAccounts(rows)
}

// ListExpiring returns active OAuth accounts whose tokens expire inside
// the given window, or already have.
func (r *connectedAccountRepository) ListExpiring(ctx context.Context, from, to time.Time) ([]*models.ConnectedAccount, error) {
	query := `SELECT ` + accountColumns + `
		FROM connected_accounts
		WHERE is_active = TRUE
		AND auth_method = $1
		AND token_expires_at IS NOT NULL
		AND token_expires_at <= $2`

	rows, err := r.db.QueryContext(ctx, query, models.AuthMethodOAuth, to.UTC())
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectAccounts(rows)
}

// Upsert inserts the account or, when the (platform, username) pair
// already exists, refreshes its credential and reactivates it in place.
func (r *connectedAccountRepository) Upsert(ctx context.Context, account *models.ConnectedAccount) (int64, error) {
	query := `
		INSERT INTO connected_accounts (platform, username, auth_method, credential, token_expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (platform, username) DO UPDATE
		SET auth_method = EXCLUDED.auth_method,
			credential = EXCLUDED.credential,
			token_expires_at = EXCLUDED.token_expires_at,
			is_active = TRUE
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		account.Platform,
		account.Username,
		account.AuthMethod,
		account.Credential,
		account.TokenExpiresAt,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

// Deactivate soft-deletes every active account for the platform. Rows are
// kept for audit history.
func (r *connectedAccountRepository) Deactivate(ctx context.Context, platform string) (bool, error) {
	query := `UPDATE connected_accounts SET is_active = FALSE WHERE platform = $1 AND is_active = TRUE`
	result, err := r.db.ExecContext(ctx, query, platform)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected > 0, nil
}

func (r *connectedAccountRepository) TouchLastUsed(ctx context.Context, id int64, now time.Time) error {
	query := `UPDATE connected_accounts SET last_used_at = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, now.UTC(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *connectedAccountRepository) SetCredential(ctx context.Context, id int64, credential string, expiresAt time.Time) error {
	query := `UPDATE connected_accounts SET credential = $1, token_expires_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, credential, expiresAt.UTC(), id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func scanAccount(scan func(dest ...any) error, account *models.ConnectedAccount) error {
	return scan(
		&account.ID,
		&account.Platform,
		&account.Username,
		&account.AuthMethod,
		&account.Credential,
		&account.TokenExpiresAt,
		&account.IsActive,
		&account.ConnectedAt,
		&account.LastUsedAt,
	)
}

func collectAccounts(rows *sql.Rows) ([]*models.ConnectedAccount, error) {
	var accounts []*models.ConnectedAccount
	for rows.Next() {
		var account models.ConnectedAccount
		if err := scanAccount(rows.Scan, &account); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		accounts = append(accounts, &account)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return accounts, nil
}
