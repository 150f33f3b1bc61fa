package providers

import (
	"testing"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry(NewMockProvider("a", testCallbacks), NewMockProvider("b", testCallbacks))

	all := registry.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Identifier())
	assert.Equal(t, "b", all[1].Identifier())
}

func TestRegistry_Get(t *testing.T) {
	registry := NewRegistry(NewMockProvider("mock", testCallbacks))

	provider, err := registry.Get("mock")
	require.NoError(t, err)
	assert.Equal(t, "mock", provider.Identifier())
}

func TestRegistry_Get_UnknownProvider(t *testing.T) {
	registry := NewRegistry()

	provider, err := registry.Get("unknown")
	assert.ErrorIs(t, err, domainErrors.ErrProviderNotFound)
	assert.Nil(t, provider)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestRegistry_Register_Replaces(t *testing.T) {
	first := NewMockProvider("mock", testCallbacks)
	second := NewMockProvider("mock", testCallbacks, WithFailureRate(1.0))
	registry := NewRegistry(first)

	registry.Register(second)

	all := registry.All()
	require.Len(t, all, 1)
	assert.Same(t, second, all[0])
}

func TestCallbackURLs(t *testing.T) {
	assert.Equal(t, "https://shop.example/checkout/abc/return", testCallbacks.ReturnURL("abc"))
	assert.Equal(t, "https://shop.example/checkout/abc/cancel", testCallbacks.CancelURL("abc"))
	assert.Equal(t, "https://static.example/return", CallbackURLs{Return: "https://static.example/return"}.ReturnURL("abc"))
}
