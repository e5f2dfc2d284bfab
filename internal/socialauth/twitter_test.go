package socialauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordnest/wordnest-api/domain"
)

func TestTwitterValidate(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tw-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"data": {
			"id": "tw-42",
			"name": "Dan Brown",
			"username": "danb",
			"profile_image_url": "https://pbs.example/dan.jpg"
		}}`))
	}))
	defer api.Close()
	swapEndpoint(t, &TwitterUserInfoEndpoint, api.URL)

	v := NewTwitterValidator(http.DefaultClient)
	identity, err := v.Validate(context.Background(), "tw-token")
	require.NoError(t, err)

	assert.Equal(t, domain.ProviderTwitter, identity.Provider)
	assert.Equal(t, "tw-42", identity.ExternalID)
	assert.Equal(t, "danb", identity.Username)
	assert.Equal(t, "Dan Brown", identity.DisplayName)
	assert.Equal(t, "https://pbs.example/dan.jpg", identity.AvatarURL)
	assert.Empty(t, identity.Email)
}

func TestTwitterValidateUnauthorized(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"title": "Unauthorized"}`, http.StatusUnauthorized)
	}))
	defer api.Close()
	swapEndpoint(t, &TwitterUserInfoEndpoint, api.URL)

	v := NewTwitterValidator(http.DefaultClient)
	_, err := v.Validate(context.Background(), "revoked")
	assert.ErrorIs(t, err, ErrInvalidProviderToken)
}

func TestTwitterValidateUpstreamDown(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "over capacity", http.StatusServiceUnavailable)
	}))
	defer api.Close()
	swapEndpoint(t, &TwitterUserInfoEndpoint, api.URL)

	v := NewTwitterValidator(http.DefaultClient)
	_, err := v.Validate(context.Background(), "any")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}
