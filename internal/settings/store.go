// Package settings stores payment provider settings. Values named by a
// provider's EncryptedSettings are sealed before they reach the repository.
package settings

import (
	"context"
	"fmt"
)

// Repository persists raw setting values.
type Repository interface {
	// Get returns ErrSettingNotFound when key has never been set.
	Get(ctx context.Context, key string) (value string, encrypted bool, err error)
	Set(ctx context.Context, key, value string, encrypted bool) error
}

type Store struct {
	repo   Repository
	cipher *Cipher
}

func NewStore(repo Repository, cipher *Cipher) *Store {
	return &Store{repo: repo, cipher: cipher}
}

// Save stores value under key, encrypting it when encrypt is set.
func (s *Store) Save(ctx context.Context, key, value string, encrypt bool) error {
	if encrypt {
		sealed, err := s.cipher.Encrypt(key, value)
		if err != nil {
			return fmt.Errorf("encrypt %s: %w", key, err)
		}
		value = sealed
	}
	if err := s.repo.Set(ctx, key, value, encrypt); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Value returns the stored value as is, so encrypted values stay sealed.
func (s *Store) Value(ctx context.Context, key string) (value string, encrypted bool, err error) {
	return s.repo.Get(ctx, key)
}

// Decrypted returns the plaintext of key. Values saved without encryption
// are returned unchanged.
func (s *Store) Decrypted(ctx context.Context, key string) (string, error) {
	value, encrypted, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !encrypted {
		return value, nil
	}
	return s.cipher.Decrypt(key, value)
}
