package socialauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/wordnest/wordnest-api/domain"
)

// Endpoint URLs are package variables so tests can point them at a local
// server.
var (
	GoogleTokenInfoEndpoint = "https://oauth2.googleapis.com/tokeninfo"
	GoogleUserInfoEndpoint  = "https://openidconnect.googleapis.com/v1/userinfo"
)

// GoogleValidator accepts either a Google ID token or an OAuth2 access
// token. ID tokens are checked against the tokeninfo endpoint (including an
// audience check when a client ID is configured); anything the tokeninfo
// endpoint rejects as malformed is retried as an access token against the
// userinfo endpoint.
type GoogleValidator struct {
	clientID string
	client   *http.Client
}

func NewGoogleValidator(clientID string, client *http.Client) *GoogleValidator {
	return &GoogleValidator{clientID: clientID, client: client}
}

func (v *GoogleValidator) Provider() domain.Provider { return domain.ProviderGoogle }

type googleTokenInfo struct {
	Sub           string `json:"sub"`
	Aud           string `json:"aud"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (v *GoogleValidator) Validate(ctx context.Context, token string) (*domain.CanonicalIdentity, error) {
	identity, err := v.validateIDToken(ctx, token)
	if err == nil {
		return identity, nil
	}
	if !errors.Is(err, errNotIDToken) {
		return nil, err
	}
	return v.validateAccessToken(ctx, token)
}

// errNotIDToken is internal to the ID-token/access-token fallback.
var errNotIDToken = errors.New("not an ID token")

func (v *GoogleValidator) validateIDToken(ctx context.Context, token string) (*domain.CanonicalIdentity, error) {
	endpoint := GoogleTokenInfoEndpoint + "?id_token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		// tokeninfo being unreachable does not condemn the token; the
		// userinfo endpoint gets the final word.
		return nil, errNotIDToken
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// tokeninfo rejects access tokens as malformed ID tokens; let the
		// userinfo endpoint judge them.
		return nil, errNotIDToken
	}

	var info googleTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if info.Sub == "" {
		return nil, ErrInvalidProviderToken
	}
	if v.clientID != "" && info.Aud != v.clientID {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidProviderToken)
	}

	return &domain.CanonicalIdentity{
		Provider:      domain.ProviderGoogle,
		ExternalID:    info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified == "true",
		GivenName:     info.GivenName,
		FamilyName:    info.FamilyName,
		DisplayName:   info.Name,
		AvatarURL:     info.Picture,
	}, nil
}

func (v *GoogleValidator) validateAccessToken(ctx context.Context, token string) (*domain.CanonicalIdentity, error) {
	client := bearerClient(ctx, v.client, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, GoogleUserInfoEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if info.Sub == "" {
		return nil, ErrInvalidProviderToken
	}

	return &domain.CanonicalIdentity{
		Provider:      domain.ProviderGoogle,
		ExternalID:    info.Sub,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		GivenName:     info.GivenName,
		FamilyName:    info.FamilyName,
		DisplayName:   info.Name,
		AvatarURL:     info.Picture,
	}, nil
}
