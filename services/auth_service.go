// Package services contains the application services that sit between the
// HTTP handlers and the domain stores.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/wordnest/wordnest-api/domain"
	"github.com/wordnest/wordnest-api/internal/metrics"
	"github.com/wordnest/wordnest-api/internal/reconcile"
	"github.com/wordnest/wordnest-api/internal/socialauth"
	"github.com/wordnest/wordnest-api/internal/token"
	"github.com/wordnest/wordnest-api/log"
)

// ErrUserInactive is returned when a deactivated account tries to obtain or
// refresh a session.
var ErrUserInactive = errors.New("user account is inactive")

// LoginResult is the outcome of a social login.
type LoginResult struct {
	Tokens  *token.Pair
	User    *domain.User
	Created bool
}

// Profile is the authenticated user's own view of their account.
type Profile struct {
	User            *domain.User
	Links           []*domain.SocialLink
	PrimaryProvider domain.Provider
}

// AuthService orchestrates provider validation, identity reconciliation and
// session token issuance.
type AuthService struct {
	validators *socialauth.Registry
	reconciler *reconcile.Reconciler
	codec      *token.Codec
	store      domain.IdentityStore
	logger     log.Logger
}

func NewAuthService(validators *socialauth.Registry, reconciler *reconcile.Reconciler, codec *token.Codec, store domain.IdentityStore, logger log.Logger) *AuthService {
	return &AuthService{
		validators: validators,
		reconciler: reconciler,
		codec:      codec,
		store:      store,
		logger:     logger,
	}
}

// SocialLogin validates a provider token, reconciles the identity to a
// local account, and issues a session token pair. The optional prefs only
// apply when the login creates a new account.
func (s *AuthService) SocialLogin(ctx context.Context, provider domain.Provider, providerToken string, prefs *reconcile.LanguagePreferences) (*LoginResult, error) {
	identity, err := s.validators.Validate(ctx, provider, providerToken)
	if err != nil {
		countLoginFailure(provider)
		return nil, err
	}

	result, err := s.reconciler.Reconcile(ctx, identity, prefs)
	if err != nil {
		countLoginFailure(provider)
		return nil, fmt.Errorf("reconciling identity: %w", err)
	}
	if !result.User.IsActive {
		countLoginFailure(provider)
		return nil, ErrUserInactive
	}

	pair, err := s.codec.IssuePair(result.User)
	if err != nil {
		countLoginFailure(provider)
		return nil, fmt.Errorf("issuing tokens: %w", err)
	}

	countLoginSuccess(provider, result.Created)
	s.logger.Info(ctx, "social login succeeded", map[string]interface{}{
		"user_id":  result.User.ID,
		"provider": string(provider),
		"created":  result.Created,
	})
	return &LoginResult{Tokens: pair, User: result.User, Created: result.Created}, nil
}

// Refresh exchanges a valid refresh token for a new access token. The user
// is re-read so deactivated accounts stop refreshing immediately.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*token.AccessGrant, error) {
	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	grant, err := s.codec.IssueAccess(user)
	if err != nil {
		return nil, fmt.Errorf("issuing access token: %w", err)
	}

	if metrics.TokensRefreshedTotal != nil {
		metrics.TokensRefreshedTotal.Inc()
	}
	return grant, nil
}

// GetProfile loads the user's account and social links. The primary
// provider is the most recently linked one.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	links, err := s.store.ListLinksByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{User: user, Links: links}
	if len(links) > 0 {
		profile.PrimaryProvider = links[0].Provider
	}
	return profile, nil
}

func countLoginSuccess(provider domain.Provider, created bool) {
	if metrics.LoginSuccessTotal != nil {
		metrics.LoginSuccessTotal.WithLabelValues(string(provider)).Inc()
	}
	if metrics.TokensIssuedTotal != nil {
		metrics.TokensIssuedTotal.Inc()
	}
	if created && metrics.UsersRegisteredTotal != nil {
		metrics.UsersRegisteredTotal.Inc()
	}
}

func countLoginFailure(provider domain.Provider) {
	if metrics.LoginFailureTotal != nil {
		metrics.LoginFailureTotal.WithLabelValues(string(provider)).Inc()
	}
}
