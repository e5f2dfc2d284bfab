package socialauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/wordnest/wordnest-api/domain"
)

var FacebookUserInfoEndpoint = "https://graph.facebook.com/me"

// FacebookValidator checks a Graph API access token by fetching the profile
// it grants access to. Facebook only returns an email the account owner has
// confirmed, so a present email counts as verified.
type FacebookValidator struct {
	client *http.Client
}

func NewFacebookValidator(client *http.Client) *FacebookValidator {
	return &FacebookValidator{client: client}
}

func (v *FacebookValidator) Provider() domain.Provider { return domain.ProviderFacebook }

type facebookProfile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Picture   struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

func (v *FacebookValidator) Validate(ctx context.Context, token string) (*domain.CanonicalIdentity, error) {
	query := url.Values{
		"fields":       {"id,name,email,first_name,last_name,picture"},
		"access_token": {token},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, FacebookUserInfoEndpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode)
	}

	var profile facebookProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if profile.ID == "" {
		return nil, ErrInvalidProviderToken
	}

	return &domain.CanonicalIdentity{
		Provider:      domain.ProviderFacebook,
		ExternalID:    profile.ID,
		Email:         profile.Email,
		EmailVerified: profile.Email != "",
		GivenName:     profile.FirstName,
		FamilyName:    profile.LastName,
		DisplayName:   profile.Name,
		AvatarURL:     profile.Picture.Data.URL,
	}, nil
}
