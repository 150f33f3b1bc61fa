package settings

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

// Cipher seals setting values with XChaCha20-Poly1305. The setting key is
// bound as additional data, so a value cannot be moved to another key.
type Cipher struct {
	aead cipher.AEAD
}

// ParseKey decodes a base64 encoded 32 byte key.
func ParseKey(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domainErrors.ErrInvalidSettingsKey, err)
	}
	return key, nil
}

func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", domainErrors.ErrInvalidSettingsKey, chacha20poly1305.KeySize, len(key))
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domainErrors.ErrInvalidSettingsKey, err)
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt returns base64(nonce || ciphertext).
func (c *Cipher) Encrypt(settingKey, plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), []byte(settingKey))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *Cipher) Decrypt(settingKey, encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domainErrors.ErrDecryptionFailed, err)
	}
	if len(raw) < c.aead.NonceSize() {
		return "", fmt.Errorf("%w: ciphertext too short", domainErrors.ErrDecryptionFailed)
	}
	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, []byte(settingKey))
	if err != nil {
		return "", fmt.Errorf("%w: %w", domainErrors.ErrDecryptionFailed, err)
	}
	return string(plaintext), nil
}
