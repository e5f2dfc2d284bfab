// Package socialauth validates provider-issued tokens (Google, Facebook,
// Apple, Twitter, plus a mock provider for development) and normalizes the
// provider responses into a single canonical identity shape.
package socialauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/wordnest/wordnest-api/domain"
	"github.com/wordnest/wordnest-api/log"
)

var (
	// ErrInvalidProviderToken means the provider examined the token and
	// rejected it, or its response lacked a usable subject identifier.
	ErrInvalidProviderToken = errors.New("invalid provider token")
	// ErrProviderUnavailable means the provider could not be reached or
	// answered with a server-side failure; the token was never judged.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrUnknownProvider means no validator is registered for the name.
	ErrUnknownProvider = errors.New("unknown provider")
)

// Validator checks a provider token and returns the verified identity.
type Validator interface {
	// Validate returns ErrInvalidProviderToken when the token is rejected
	// and ErrProviderUnavailable when the provider cannot be consulted.
	Validate(ctx context.Context, token string) (*domain.CanonicalIdentity, error)
	Provider() domain.Provider
}

// Config carries the provider settings needed to build a Registry.
type Config struct {
	GoogleClientID     string
	AppleClientID      string
	EnableMockProvider bool
	Timeout            time.Duration
}

// Registry dispatches validation calls to per-provider validators.
type Registry struct {
	validators map[domain.Provider]Validator
	logger     log.Logger
}

// NewRegistry builds a Registry with the standard validators. The mock
// validator is only registered when enabled in config.
func NewRegistry(cfg Config, logger log.Logger) *Registry {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	r := &Registry{
		validators: make(map[domain.Provider]Validator),
		logger:     logger,
	}
	r.Register(NewGoogleValidator(cfg.GoogleClientID, client))
	r.Register(NewFacebookValidator(client))
	r.Register(NewAppleValidator(cfg.AppleClientID, client))
	r.Register(NewTwitterValidator(client))
	if cfg.EnableMockProvider {
		r.Register(NewMockValidator())
	}
	return r
}

// Register adds or replaces the validator for its provider.
func (r *Registry) Register(v Validator) {
	r.validators[v.Provider()] = v
}

// Validate dispatches to the validator registered for provider.
func (r *Registry) Validate(ctx context.Context, provider domain.Provider, token string) (*domain.CanonicalIdentity, error) {
	v, ok := r.validators[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}

	identity, err := v.Validate(ctx, token)
	if err != nil {
		r.logger.Warn(ctx, "provider token validation failed", map[string]interface{}{
			"provider": string(provider),
			"reason":   err.Error(),
		})
		return nil, err
	}
	if identity.ExternalID == "" {
		return nil, ErrInvalidProviderToken
	}
	identity.Provider = provider
	return identity, nil
}

// Providers lists the registered provider names.
func (r *Registry) Providers() []domain.Provider {
	names := make([]domain.Provider, 0, len(r.validators))
	for p := range r.validators {
		names = append(names, p)
	}
	return names
}

// bearerClient wraps the base client so every request carries the provider
// token as a bearer credential.
func bearerClient(ctx context.Context, base *http.Client, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
}

// classifyStatus maps a provider HTTP status onto the package error
// taxonomy. Provider 5xx means the verdict is unknown, not negative.
func classifyStatus(status int) error {
	if status >= 500 {
		return fmt.Errorf("%w: upstream status %d", ErrProviderUnavailable, status)
	}
	return ErrInvalidProviderToken
}
