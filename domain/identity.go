package domain

// Provider identifies a supported social login provider.
type Provider string

const (
	ProviderGoogle   Provider = "google"
	ProviderFacebook Provider = "facebook"
	ProviderApple    Provider = "apple"
	ProviderTwitter  Provider = "twitter"
	// ProviderMock is only enabled in development and test configurations.
	ProviderMock Provider = "mock"
)

// CanonicalIdentity is the provider-agnostic view of a verified external
// account. It is produced per validation call and never persisted as-is;
// the reconciler turns it into a User plus SocialLink.
//
// ExternalID is non-empty whenever validation succeeded.
type CanonicalIdentity struct {
	Provider      Provider `json:"provider"`
	ExternalID    string   `json:"external_id"`
	Email         string   `json:"email,omitempty"`
	EmailVerified bool     `json:"email_verified"`
	GivenName     string   `json:"given_name,omitempty"`
	FamilyName    string   `json:"family_name,omitempty"`
	DisplayName   string   `json:"display_name,omitempty"`
	Username      string   `json:"username,omitempty"`
	AvatarURL     string   `json:"avatar_url,omitempty"`
}
