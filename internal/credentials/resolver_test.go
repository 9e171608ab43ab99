package credentials

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/postlinehq/postline/configs"
	"github.com/postlinehq/postline/internal/models"
	"github.com/postlinehq/postline/internal/platform"
	"github.com/postlinehq/postline/internal/secret"
)

type fakeAccountRepo struct {
	accounts map[string]*models.ConnectedAccount
	err      error
}

func (f *fakeAccountRepo) GetActive(ctx context.Context, platform string) (*models.ConnectedAccount, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.accounts[platform], nil
}

func (f *fakeAccountRepo) ListActive(ctx context.Context) ([]*models.ConnectedAccount, error) {
	return nil, nil
}

func (f *fakeAccountRepo) ListExpiring(ctx context.Context, from, to time.Time) ([]*models.ConnectedAccount, error) {
	return nil, nil
}

func (f *fakeAccountRepo) Upsert(ctx context.Context, account *models.ConnectedAccount) (int64, error) {
	return 0, nil
}

func (f *fakeAccountRepo) Deactivate(ctx context.Context, platform string) (bool, error) {
	return false, nil
}

func (f *fakeAccountRepo) TouchLastUsed(ctx context.Context, id int64, now time.Time) error {
	return nil
}

func (f *fakeAccountRepo) SetCredential(ctx context.Context, id int64, credential string, expiresAt time.Time) error {
	return nil
}

func newTestCipher(t *testing.T) *secret.Cipher {
	t.Helper()
	c, err := secret.NewCipher("resolver-test-key", false)
	require.NoError(t, err)
	return c
}

func encryptedCredential(t *testing.T, c *secret.Cipher, plaintext string) string {
	t.Helper()
	encrypted, err := c.Encrypt(plaintext)
	require.NoError(t, err)
	return encrypted
}

func TestEnvOverrideBeatsStoredAccount(t *testing.T) {
	cipher := newTestCipher(t)
	repo := &fakeAccountRepo{
		accounts: map[string]*models.ConnectedAccount{
			models.PlatformLinkedin: {
				ID:         7,
				Platform:   models.PlatformLinkedin,
				Username:   "db-urn",
				AuthMethod: models.AuthMethodOAuth,
				Credential: encryptedCredential(t, cipher, "db-token"),
				IsActive:   true,
			},
		},
	}
	cfg := &config.Config{
		LinkedinAccessToken: "env-token",
		LinkedinPersonURN:   "env-urn",
	}

	r := NewResolver(cfg, repo, cipher)

	pub, account, err := r.Resolve(context.Background(), models.PlatformLinkedin)
	require.NoError(t, err)
	assert.IsType(t, &platform.LinkedinPublisher{}, pub)
	assert.Nil(t, account, "env-resolved credentials must not be tied to a store row")
}

func TestStoredAccountUsedWithoutOverride(t *testing.T) {
	cipher := newTestCipher(t)
	repo := &fakeAccountRepo{
		accounts: map[string]*models.ConnectedAccount{
			models.PlatformThreads: {
				ID:         3,
				Platform:   models.PlatformThreads,
				Username:   "someone",
				AuthMethod: models.AuthMethodOAuth,
				Credential: encryptedCredential(t, cipher, "stored-token"),
				IsActive:   true,
			},
		},
	}

	r := NewResolver(&config.Config{}, repo, cipher)

	pub, account, err := r.Resolve(context.Background(), models.PlatformThreads)
	require.NoError(t, err)
	assert.IsType(t, &platform.ThreadsPublisher{}, pub)
	require.NotNil(t, account)
	assert.Equal(t, int64(3), account.ID)
}

func TestPasswordAccountGetsSessionPublisher(t *testing.T) {
	cipher := newTestCipher(t)
	repo := &fakeAccountRepo{
		accounts: map[string]*models.ConnectedAccount{
			models.PlatformThreads: {
				ID:         4,
				Platform:   models.PlatformThreads,
				Username:   "someone",
				AuthMethod: models.AuthMethodPassword,
				Credential: encryptedCredential(t, cipher, "hunter2"),
				IsActive:   true,
			},
		},
	}

	r := NewResolver(&config.Config{SessionDir: t.TempDir()}, repo, cipher)

	pub, account, err := r.Resolve(context.Background(), models.PlatformThreads)
	require.NoError(t, err)
	assert.IsType(t, &platform.ThreadsSessionPublisher{}, pub)
	require.NotNil(t, account)
}

func TestNoCredentials(t *testing.T) {
	r := NewResolver(&config.Config{}, &fakeAccountRepo{}, newTestCipher(t))

	_, _, err := r.Resolve(context.Background(), models.PlatformLinkedin)
	assert.ErrorIs(t, err, ErrNoCredentials)

	_, _, err = r.Resolve(context.Background(), models.PlatformThreads)
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestUndecryptableRowReportsNoCredentials(t *testing.T) {
	cipher := newTestCipher(t)
	otherCipher, err := secret.NewCipher("a-different-key", false)
	require.NoError(t, err)

	repo := &fakeAccountRepo{
		accounts: map[string]*models.ConnectedAccount{
			models.PlatformThreads: {
				ID:         5,
				Platform:   models.PlatformThreads,
				Username:   "someone",
				AuthMethod: models.AuthMethodOAuth,
				Credential: encryptedCredential(t, otherCipher, "unreadable"),
				IsActive:   true,
			},
		},
	}

	r := NewResolver(&config.Config{}, repo, cipher)

	_, _, err = r.Resolve(context.Background(), models.PlatformThreads)
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestUnknownPlatformFallsThroughToSimulation(t *testing.T) {
	r := NewResolver(&config.Config{}, &fakeAccountRepo{}, newTestCipher(t))

	for _, name := range []string{models.PlatformTwitter, models.PlatformFacebook, "simulation-only"} {
		pub, account, err := r.Resolve(context.Background(), name)
		require.NoError(t, err)
		assert.IsType(t, &platform.SimulationPublisher{}, pub)
		assert.Equal(t, name, pub.Platform())
		assert.Nil(t, account)
	}
}
