package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordnest/wordnest-api/domain"
	"github.com/wordnest/wordnest-api/internal/reconcile"
	"github.com/wordnest/wordnest-api/internal/socialauth"
	"github.com/wordnest/wordnest-api/internal/store/memory"
	"github.com/wordnest/wordnest-api/internal/token"
	"github.com/wordnest/wordnest-api/log"
	"github.com/wordnest/wordnest-api/services"
)

type testEnv struct {
	router *gin.Engine
	store  *memory.Store
	codec  *token.Codec
}

// downValidator simulates a provider outage.
type downValidator struct{}

func (downValidator) Provider() domain.Provider { return domain.ProviderTwitter }

func (downValidator) Validate(context.Context, string) (*domain.CanonicalIdentity, error) {
	return nil, socialauth.ErrProviderUnavailable
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.CreateLanguage(ctx, &domain.Language{ID: "lang-en", Code: "en", Name: "English"}))
	require.NoError(t, store.CreateLanguage(ctx, &domain.Language{ID: "lang-es", Code: "es", Name: "Spanish"}))

	logger := log.NewZerologAdapter(zerolog.Disabled, false)
	validators := socialauth.NewRegistry(socialauth.Config{EnableMockProvider: true}, logger)
	validators.Register(downValidator{})
	reconciler := reconcile.New(store, store, "en", "es", logger, nil)
	codec := token.NewCodec("test-secret", "wordnest-api", "wordnest-app", time.Hour, 30*24*time.Hour, nil)
	auth := services.NewAuthService(validators, reconciler, codec, store, logger)
	authmw := NewAuthMiddleware(codec, store, logger)

	router := gin.New()
	NewAuthAPI(auth, authmw, logger).RegisterRoutes(router)
	NewLanguageAPI(store, authmw, logger).RegisterRoutes(router)

	return &testEnv{router: router, store: store, codec: codec}
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) login(t *testing.T) map[string]any {
	t.Helper()
	w := e.do(t, http.MethodPost, "/auth/social-login", "", gin.H{"provider": "mock", "token": "ok"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSocialLoginCreatesAccount(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/auth/social-login", "", gin.H{"provider": "mock", "token": "ok"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["access_token"])
	assert.NotEmpty(t, resp["refresh_token"])
	assert.Equal(t, "bearer", resp["token_type"])
	assert.Equal(t, float64(3600), resp["expires_in"])
	assert.Equal(t, true, resp["is_new_user"])

	user := resp["user"].(map[string]any)
	assert.Equal(t, "test@example.com", user["email"])
}

func TestSocialLoginExistingAccount(t *testing.T) {
	env := newTestEnv(t)
	first := env.login(t)

	second := env.login(t)
	assert.Equal(t, false, second["is_new_user"])
	assert.Equal(t,
		first["user"].(map[string]any)["id"],
		second["user"].(map[string]any)["id"])
}

func TestSocialLoginLanguagePreferences(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/auth/social-login", "", gin.H{
		"provider": "mock",
		"token":    "ok",
		"language_preferences": gin.H{
			"native_language_code": "es",
			"study_language_code":  "en",
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	user := resp["user"].(map[string]any)
	assert.Equal(t, "lang-es", user["native_language_id"])
	assert.Equal(t, "lang-en", user["study_language_id"])
}

func TestSocialLoginRejections(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body gin.H
		code int
	}{
		{"invalid provider token", gin.H{"provider": "mock", "token": "invalid"}, http.StatusUnauthorized},
		{"unknown provider", gin.H{"provider": "github", "token": "ok"}, http.StatusUnauthorized},
		{"provider outage", gin.H{"provider": "twitter", "token": "ok"}, http.StatusBadGateway},
		{"missing token", gin.H{"provider": "mock"}, http.StatusBadRequest},
		{"missing provider", gin.H{"token": "ok"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/auth/social-login", "", tt.body)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestRefreshEndpoint(t *testing.T) {
	env := newTestEnv(t)
	login := env.login(t)

	w := env.do(t, http.MethodPost, "/auth/refresh", "", gin.H{"refresh_token": login["refresh_token"]})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	access, _ := resp["access_token"].(string)
	require.NotEmpty(t, access)
	assert.Equal(t, "bearer", resp["token_type"])
	assert.Equal(t, float64(3600), resp["expires_in"])
	assert.NotContains(t, resp, "refresh_token")

	// the fresh access token is accepted by the gate
	me := env.do(t, http.MethodGet, "/auth/me", access, nil)
	assert.Equal(t, http.StatusOK, me.Code)
}

func TestRefreshEndpointRejections(t *testing.T) {
	env := newTestEnv(t)
	login := env.login(t)

	tests := []struct {
		name string
		body gin.H
		code int
	}{
		{"garbage token", gin.H{"refresh_token": "garbage"}, http.StatusUnauthorized},
		{"access token in refresh slot", gin.H{"refresh_token": login["access_token"]}, http.StatusUnauthorized},
		{"missing body field", gin.H{}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/auth/refresh", "", tt.body)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestMeEndpoint(t *testing.T) {
	env := newTestEnv(t)
	login := env.login(t)

	w := env.do(t, http.MethodGet, "/auth/me", login["access_token"].(string), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "mock", resp["primary_provider"])
	assert.Equal(t, []any{"mock"}, resp["linked_providers"])

	user := resp["user"].(map[string]any)
	assert.Equal(t, "test@example.com", user["email"])
}

func TestAuthGateRejections(t *testing.T) {
	env := newTestEnv(t)
	login := env.login(t)
	userID := login["user"].(map[string]any)["id"].(string)

	expiredCodec := token.NewCodec("test-secret", "wordnest-api", "wordnest-app", -time.Hour, -time.Hour, nil)
	expiredPair, err := expiredCodec.IssuePair(&domain.User{ID: userID, IsActive: true})
	require.NoError(t, err)

	badSubjectPair, err := env.codec.IssuePair(&domain.User{ID: "not-a-uuid", IsActive: true})
	require.NoError(t, err)

	orphanPair, err := env.codec.IssuePair(&domain.User{ID: "6ba7b810-9dad-11d1-80b4-00c04fd430c8", IsActive: true})
	require.NoError(t, err)

	tests := []struct {
		name   string
		bearer string
		header string
	}{
		{name: "no header"},
		{name: "wrong scheme", header: "Basic dXNlcjpwdw=="},
		{name: "garbage token", bearer: "garbage"},
		{name: "expired token", bearer: expiredPair.AccessToken},
		{name: "malformed subject", bearer: badSubjectPair.AccessToken},
		{name: "unknown user", bearer: orphanPair.AccessToken},
		{name: "refresh token at the gate", bearer: login["refresh_token"].(string)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			} else if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error": "authentication required"}`, w.Body.String())
		})
	}
}

func TestAuthGateInactiveUser(t *testing.T) {
	env := newTestEnv(t)
	login := env.login(t)
	userID := login["user"].(map[string]any)["id"].(string)

	user, err := env.store.GetUserByID(context.Background(), userID)
	require.NoError(t, err)
	user.IsActive = false
	require.NoError(t, env.store.UpdateUser(context.Background(), user))

	w := env.do(t, http.MethodGet, "/auth/me", login["access_token"].(string), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	login := env.login(t)

	w := env.do(t, http.MethodPost, "/auth/logout", login["access_token"].(string), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// stateless tokens keep working until expiry
	me := env.do(t, http.MethodGet, "/auth/me", login["access_token"].(string), nil)
	assert.Equal(t, http.StatusOK, me.Code)

	noAuth := env.do(t, http.MethodPost, "/auth/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, noAuth.Code)
}
