package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/providers"
)

// SettingsStore persists provider settings.
type SettingsStore interface {
	Save(ctx context.Context, key, value string, encrypt bool) error
	Value(ctx context.Context, key string) (value string, encrypted bool, err error)
}

// SettingValue is a provider setting as shown to an admin. Encrypted values
// are never returned; IsSet tells whether one is stored.
type SettingValue struct {
	providers.SettingField
	Value     string `json:"value"`
	Encrypted bool   `json:"encrypted"`
	IsSet     bool   `json:"is_set"`
}

// SettingsService manages the admin settings of registered providers.
type SettingsService struct {
	registry *providers.Registry
	store    SettingsStore
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService(registry *providers.Registry, store SettingsStore) *SettingsService {
	return &SettingsService{registry: registry, store: store}
}

// Fields returns the settings of a provider with their current values.
func (s *SettingsService) Fields(ctx context.Context, providerID string) ([]SettingValue, error) {
	p, err := s.registry.Get(providerID)
	if err != nil {
		return nil, err
	}

	fields := p.Settings()
	out := make([]SettingValue, 0, len(fields))
	for _, f := range fields {
		v := SettingValue{SettingField: f, Encrypted: slices.Contains(p.EncryptedSettings(), f.Key)}

		value, _, err := s.store.Value(ctx, f.Key)
		switch {
		case errors.Is(err, domainErrors.ErrSettingNotFound):
		case err != nil:
			return nil, fmt.Errorf("failed to read setting %s: %w", f.Key, err)
		default:
			v.IsSet = true
			if !v.Encrypted {
				v.Value = value
			}
		}
		out = append(out, v)
	}
	return out, nil
}

// Update stores the given setting values of a provider. Keys the provider
// lists in EncryptedSettings are encrypted; an empty value for such a key
// keeps the stored secret.
func (s *SettingsService) Update(ctx context.Context, providerID string, values map[string]string) error {
	p, err := s.registry.Get(providerID)
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(p.Settings()))
	for _, f := range p.Settings() {
		known[f.Key] = true
	}
	keys := slices.Sorted(maps.Keys(values))
	for _, key := range keys {
		if !known[key] {
			return domainErrors.NewDomainError(
				"unknown_setting",
				fmt.Sprintf("provider %s has no setting %q", providerID, key),
				domainErrors.ErrUnknownSetting,
			)
		}
	}

	encrypted := p.EncryptedSettings()
	for _, key := range keys {
		encrypt := slices.Contains(encrypted, key)
		if encrypt && values[key] == "" {
			continue
		}
		if err := s.store.Save(ctx, key, values[key], encrypt); err != nil {
			return err
		}
	}
	return nil
}
