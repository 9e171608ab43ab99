package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
)

var (
	ErrEmptyPlaintext  = errors.New("cannot encrypt empty plaintext")
	ErrEmptyCiphertext = errors.New("cannot decrypt empty ciphertext")
	ErrMissingKey      = errors.New("encryption key is not configured")
)

// Cipher encrypts credential material with AES-GCM. A single instance is
// constructed at startup and injected wherever secrets are read or written.
type Cipher struct {
	key []byte
}

// NewCipher derives a 32-byte AES key from the configured key material.
// An empty key is rejected in production; in development a random key is
// generated so encrypted rows survive only for the process lifetime.
func NewCipher(key string, production bool) (*Cipher, error) {
	if key == "" {
		if production {
			return nil, ErrMissingKey
		}
		slog.Warn("ENCRYPTION_KEY not set, generating a temporary key; stored credentials will not survive a restart")
		tmp := make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, tmp); err != nil {
			return nil, err
		}
		return &Cipher{key: tmp}, nil
	}

	sum := sha256.Sum256([]byte(key))
	return &Cipher{key: sum[:]}, nil
}

func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPlaintext
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		slog.Info(err.Error())
		return "", err
	}

	ciphertext := aesGCM.Seal(nil, nonce, []byte(plaintext), nil)

	// Nonce is prepended so decryption needs only the stored string.
	finalData := append(nonce, ciphertext...)

	return base64.StdEncoding.EncodeToString(finalData), nil
}

func (c *Cipher) Decrypt(encryptedData string) (string, error) {
	if encryptedData == "" {
		return "", ErrEmptyCiphertext
	}

	data, err := base64.StdEncoding.DecodeString(encryptedData)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	nonceSize := aesGCM.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}
	nonce, ciphertext := data[:nonceSize], data[nonceSize:]

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return string(plaintext), nil
}
