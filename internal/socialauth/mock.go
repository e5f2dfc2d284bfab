package socialauth

import (
	"context"

	"github.com/wordnest/wordnest-api/domain"
)

// MockValidator is a development-only validator that accepts any token
// except the literal string "invalid" and always resolves to the same test
// identity. It must never be registered in production configurations.
type MockValidator struct{}

func NewMockValidator() *MockValidator { return &MockValidator{} }

func (v *MockValidator) Provider() domain.Provider { return domain.ProviderMock }

func (v *MockValidator) Validate(_ context.Context, token string) (*domain.CanonicalIdentity, error) {
	if token == "invalid" {
		return nil, ErrInvalidProviderToken
	}
	return &domain.CanonicalIdentity{
		Provider:      domain.ProviderMock,
		ExternalID:    "test_user_123",
		Email:         "test@example.com",
		EmailVerified: true,
		GivenName:     "Test",
		FamilyName:    "User",
		DisplayName:   "Test User",
		AvatarURL:     "https://example.com/avatar.jpg",
	}, nil
}
