package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordnest/wordnest-api/domain"
	"github.com/wordnest/wordnest-api/internal/reconcile"
	"github.com/wordnest/wordnest-api/internal/socialauth"
	"github.com/wordnest/wordnest-api/internal/store/memory"
	"github.com/wordnest/wordnest-api/internal/token"
	"github.com/wordnest/wordnest-api/log"
)

func newTestService(t *testing.T) (*AuthService, *memory.Store, *token.Codec) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.CreateLanguage(ctx, &domain.Language{ID: "lang-en", Code: "en", Name: "English"}))
	require.NoError(t, store.CreateLanguage(ctx, &domain.Language{ID: "lang-es", Code: "es", Name: "Spanish"}))

	logger := log.NewZerologAdapter(zerolog.Disabled, false)
	validators := socialauth.NewRegistry(socialauth.Config{EnableMockProvider: true}, logger)
	reconciler := reconcile.New(store, store, "en", "es", logger, nil)
	codec := token.NewCodec("test-secret", "wordnest-api", "wordnest-app", time.Hour, 30*24*time.Hour, nil)

	return NewAuthService(validators, reconciler, codec, store, logger), store, codec
}

func TestSocialLoginCreatesAccountAndTokens(t *testing.T) {
	svc, _, codec := newTestService(t)
	ctx := context.Background()

	result, err := svc.SocialLogin(ctx, domain.ProviderMock, "any-token", nil)
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.Equal(t, "test@example.com", result.User.Email)
	assert.Equal(t, "bearer", result.Tokens.TokenType)

	claims, err := codec.VerifyAccess(result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.Subject)
	assert.Equal(t, result.User.Username, claims.Username)
}

func TestSocialLoginSecondTimeReusesAccount(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.SocialLogin(ctx, domain.ProviderMock, "any-token", nil)
	require.NoError(t, err)

	second, err := svc.SocialLogin(ctx, domain.ProviderMock, "another-token", nil)
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Equal(t, first.User.ID, second.User.ID)
}

func TestSocialLoginInvalidToken(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.SocialLogin(context.Background(), domain.ProviderMock, "invalid", nil)
	assert.ErrorIs(t, err, socialauth.ErrInvalidProviderToken)
}

func TestSocialLoginUnknownProvider(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.SocialLogin(context.Background(), domain.Provider("github"), "token", nil)
	assert.ErrorIs(t, err, socialauth.ErrUnknownProvider)
}

func TestSocialLoginInactiveUser(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.SocialLogin(ctx, domain.ProviderMock, "any-token", nil)
	require.NoError(t, err)

	result.User.IsActive = false
	require.NoError(t, store.UpdateUser(ctx, result.User))

	_, err = svc.SocialLogin(ctx, domain.ProviderMock, "any-token", nil)
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestRefresh(t *testing.T) {
	svc, _, codec := newTestService(t)
	ctx := context.Background()

	login, err := svc.SocialLogin(ctx, domain.ProviderMock, "any-token", nil)
	require.NoError(t, err)

	grant, err := svc.Refresh(ctx, login.Tokens.RefreshToken)
	require.NoError(t, err)

	assert.Equal(t, "bearer", grant.TokenType)
	claims, err := codec.VerifyAccess(grant.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, login.User.ID, claims.Subject)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	login, err := svc.SocialLogin(ctx, domain.ProviderMock, "any-token", nil)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, login.Tokens.AccessToken)
	assert.ErrorIs(t, err, token.ErrTokenInvalid)
}

func TestRefreshInactiveUser(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	login, err := svc.SocialLogin(ctx, domain.ProviderMock, "any-token", nil)
	require.NoError(t, err)

	login.User.IsActive = false
	require.NoError(t, store.UpdateUser(ctx, login.User))

	_, err = svc.Refresh(ctx, login.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestGetProfile(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	login, err := svc.SocialLogin(ctx, domain.ProviderMock, "any-token", nil)
	require.NoError(t, err)

	// an older link from another provider; the mock link stays primary
	require.NoError(t, store.CreateLink(ctx, &domain.SocialLink{
		UserID:     login.User.ID,
		Provider:   domain.ProviderGoogle,
		ExternalID: "g-1",
		CreatedAt:  time.Now().Add(-time.Hour),
	}))

	profile, err := svc.GetProfile(ctx, login.User.ID)
	require.NoError(t, err)

	assert.Equal(t, login.User.ID, profile.User.ID)
	assert.Len(t, profile.Links, 2)
	assert.Equal(t, domain.ProviderMock, profile.PrimaryProvider)
}

func TestGetProfileUnknownUser(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
