package socialauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/wordnest/wordnest-api/domain"
)

var TwitterUserInfoEndpoint = "https://api.twitter.com/2/users/me"

// TwitterValidator checks an OAuth2 access token against the v2 users/me
// endpoint. Twitter does not expose the account email on this endpoint, so
// the identity comes back without one.
type TwitterValidator struct {
	client *http.Client
}

func NewTwitterValidator(client *http.Client) *TwitterValidator {
	return &TwitterValidator{client: client}
}

func (v *TwitterValidator) Provider() domain.Provider { return domain.ProviderTwitter }

type twitterUser struct {
	Data struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		Username        string `json:"username"`
		ProfileImageURL string `json:"profile_image_url"`
	} `json:"data"`
}

func (v *TwitterValidator) Validate(ctx context.Context, token string) (*domain.CanonicalIdentity, error) {
	client := bearerClient(ctx, v.client, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		TwitterUserInfoEndpoint+"?user.fields=profile_image_url", nil)
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

	var user twitterUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if user.Data.ID == "" {
		return nil, ErrInvalidProviderToken
	}

	return &domain.CanonicalIdentity{
		Provider:    domain.ProviderTwitter,
		ExternalID:  user.Data.ID,
		DisplayName: user.Data.Name,
		Username:    user.Data.Username,
		AvatarURL:   user.Data.ProfileImageURL,
	}, nil
}
