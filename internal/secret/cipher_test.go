package secret

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c, err := NewCipher("test-key", false)
	require.NoError(t, err)

	for _, plaintext := range []string{"x", "some-access-token", "pässwörd with ünicode", "a very long credential string that spans more than one AES block boundary"} {
		encrypted, err := c.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, encrypted)

		decrypted, err := c.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestEncryptProducesFreshNonce(t *testing.T) {
	c, err := NewCipher("test-key", false)
	require.NoError(t, err)

	first, err := c.Encrypt("token")
	require.NoError(t, err)
	second, err := c.Encrypt("token")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestEmptyInputsFail(t *testing.T) {
	c, err := NewCipher("test-key", false)
	require.NoError(t, err)

	_, err = c.Encrypt("")
	assert.ErrorIs(t, err, ErrEmptyPlaintext)

	_, err = c.Decrypt("")
	assert.ErrorIs(t, err, ErrEmptyCiphertext)
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	first, err := NewCipher("key-one", false)
	require.NoError(t, err)
	second, err := NewCipher("key-two", false)
	require.NoError(t, err)

	encrypted, err := first.Encrypt("secret")
	require.NoError(t, err)

	_, err = second.Decrypt(encrypted)
	assert.Error(t, err)
}

func TestDecryptGarbageFails(t *testing.T) {
	c, err := NewCipher("test-key", false)
	require.NoError(t, err)

	_, err = c.Decrypt("not base64 at all!!!")
	assert.Error(t, err)

	_, err = c.Decrypt("dG9vc2hvcnQ=")
	assert.Error(t, err)
}

func TestMissingKeyFailsClosedInProduction(t *testing.T) {
	_, err := NewCipher("", true)
	assert.ErrorIs(t, err, ErrMissingKey)

	c, err := NewCipher("", false)
	require.NoError(t, err)
	assert.NotNil(t, c)
}
