package socialauth

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordnest/wordnest-api/domain"
	"github.com/wordnest/wordnest-api/log"
)

func testLogger() log.Logger {
	return log.NewZerologAdapter(zerolog.Disabled, false)
}

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry(Config{EnableMockProvider: true}, testLogger())

	identity, err := r.Validate(context.Background(), domain.ProviderMock, "any-token")
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderMock, identity.Provider)
	assert.Equal(t, "test_user_123", identity.ExternalID)
	assert.Equal(t, "test@example.com", identity.Email)
	assert.True(t, identity.EmailVerified)
	assert.Equal(t, "Test User", identity.DisplayName)
}

func TestRegistryMockRejectsInvalid(t *testing.T) {
	r := NewRegistry(Config{EnableMockProvider: true}, testLogger())

	_, err := r.Validate(context.Background(), domain.ProviderMock, "invalid")
	assert.ErrorIs(t, err, ErrInvalidProviderToken)
}

func TestRegistryUnknownProvider(t *testing.T) {
	r := NewRegistry(Config{}, testLogger())

	_, err := r.Validate(context.Background(), domain.Provider("github"), "token")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestRegistryMockDisabledByDefault(t *testing.T) {
	r := NewRegistry(Config{}, testLogger())

	_, err := r.Validate(context.Background(), domain.ProviderMock, "any-token")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestRegistryProviders(t *testing.T) {
	r := NewRegistry(Config{EnableMockProvider: true}, testLogger())
	assert.ElementsMatch(t, []domain.Provider{
		domain.ProviderGoogle,
		domain.ProviderFacebook,
		domain.ProviderApple,
		domain.ProviderTwitter,
		domain.ProviderMock,
	}, r.Providers())
}
