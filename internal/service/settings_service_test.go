package service

import (
	"context"
	"errors"
	"testing"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/providers"
	"github.com/cassiomorais/checkout/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type savedSetting struct {
	value     string
	encrypted bool
}

type fakeSettingsStore struct {
	values  map[string]savedSetting
	readErr error
}

func newFakeSettingsStore() *fakeSettingsStore {
	return &fakeSettingsStore{values: make(map[string]savedSetting)}
}

func (f *fakeSettingsStore) Save(_ context.Context, key, value string, encrypt bool) error {
	if encrypt {
		value = "sealed:" + value
	}
	f.values[key] = savedSetting{value: value, encrypted: encrypt}
	return nil
}

func (f *fakeSettingsStore) Value(_ context.Context, key string) (string, bool, error) {
	if f.readErr != nil {
		return "", false, f.readErr
	}
	v, ok := f.values[key]
	if !ok {
		return "", false, domainErrors.ErrSettingNotFound
	}
	return v.value, v.encrypted, nil
}

func setupSettingsService() (*SettingsService, *fakeSettingsStore) {
	provider := &testutil.StubProvider{
		ID:    "gateway",
		Valid: true,
		Fields: []providers.SettingField{
			{Key: "gateway_api_key", Label: "API key", Span: "left", Type: "text"},
			{Key: "gateway_profile", Label: "Profile", Span: "right", Type: "text"},
		},
		EncryptedFields: []string{"gateway_api_key"},
	}
	store := newFakeSettingsStore()
	return NewSettingsService(providers.NewRegistry(provider), store), store
}

func TestSettingsFields_Unset(t *testing.T) {
	svc, _ := setupSettingsService()

	fields, err := svc.Fields(context.Background(), "gateway")
	require.NoError(t, err)
	require.Len(t, fields, 2)

	assert.Equal(t, "gateway_api_key", fields[0].Key)
	assert.True(t, fields[0].Encrypted)
	assert.False(t, fields[0].IsSet)
	assert.False(t, fields[1].Encrypted)
}

func TestSettingsFields_RedactsEncryptedValues(t *testing.T) {
	svc, store := setupSettingsService()
	ctx := context.Background()
	require.NoError(t, svc.Update(ctx, "gateway", map[string]string{
		"gateway_api_key": "live_secret",
		"gateway_profile": "pfl_1",
	}))

	fields, err := svc.Fields(ctx, "gateway")
	require.NoError(t, err)

	assert.True(t, fields[0].IsSet)
	assert.Empty(t, fields[0].Value)
	assert.Equal(t, "pfl_1", fields[1].Value)

	assert.Equal(t, savedSetting{value: "sealed:live_secret", encrypted: true}, store.values["gateway_api_key"])
	assert.Equal(t, savedSetting{value: "pfl_1", encrypted: false}, store.values["gateway_profile"])
}

func TestSettingsFields_StoreError(t *testing.T) {
	svc, store := setupSettingsService()
	store.readErr = errors.New("connection refused")

	_, err := svc.Fields(context.Background(), "gateway")
	assert.ErrorContains(t, err, "connection refused")
}

func TestSettingsUpdate_EmptySecretKeepsStoredValue(t *testing.T) {
	svc, store := setupSettingsService()
	ctx := context.Background()
	require.NoError(t, svc.Update(ctx, "gateway", map[string]string{"gateway_api_key": "live_secret"}))

	require.NoError(t, svc.Update(ctx, "gateway", map[string]string{"gateway_api_key": "", "gateway_profile": ""}))

	assert.Equal(t, "sealed:live_secret", store.values["gateway_api_key"].value)
	assert.Equal(t, "", store.values["gateway_profile"].value)
}

func TestSettingsUpdate_UnknownKeyStoresNothing(t *testing.T) {
	svc, store := setupSettingsService()

	err := svc.Update(context.Background(), "gateway", map[string]string{
		"gateway_api_key": "live_secret",
		"other_key":       "x",
	})
	assert.ErrorIs(t, err, domainErrors.ErrUnknownSetting)
	assert.Empty(t, store.values)
}

func TestSettings_UnknownProvider(t *testing.T) {
	svc, _ := setupSettingsService()

	_, err := svc.Fields(context.Background(), "paypal")
	assert.ErrorIs(t, err, domainErrors.ErrProviderNotFound)

	err = svc.Update(context.Background(), "paypal", nil)
	assert.ErrorIs(t, err, domainErrors.ErrProviderNotFound)
}
