// Package reconcile maps verified provider identities onto local user
// accounts: returning visitors by their social link, known email owners by
// linking, and everyone else through account creation.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wordnest/wordnest-api/domain"
	"github.com/wordnest/wordnest-api/log"
)

// ErrDefaultLanguagesMissing means the language catalogue holds neither the
// configured default nor the English fallback, so new accounts cannot be
// provisioned. Run the seed command.
var ErrDefaultLanguagesMissing = errors.New("default languages missing from catalogue")

// maxConflictRetries bounds the re-reads after a concurrent writer wins a
// unique-constraint race.
const maxConflictRetries = 3

// Result is the outcome of reconciling one identity.
type Result struct {
	User    *domain.User
	Created bool
}

// LanguagePreferences are the optional language codes a client may send
// with its first login. They only affect account creation.
type LanguagePreferences struct {
	NativeCode string
	StudyCode  string
}

// Reconciler resolves canonical identities to user accounts.
type Reconciler struct {
	store         domain.IdentityStore
	languages     domain.LanguageRepository
	defaultNative string
	defaultStudy  string
	logger        log.Logger
	now           func() time.Time
}

// New creates a Reconciler. defaultNative and defaultStudy are language
// codes assigned to newly created accounts. The now hook is for tests;
// passing nil uses time.Now.
func New(store domain.IdentityStore, languages domain.LanguageRepository, defaultNative, defaultStudy string, logger log.Logger, now func() time.Time) *Reconciler {
	if now == nil {
		now = time.Now
	}
	return &Reconciler{
		store:         store,
		languages:     languages,
		defaultNative: defaultNative,
		defaultStudy:  defaultStudy,
		logger:        logger,
		now:           now,
	}
}

// Reconcile finds or creates the account for a verified identity. Lost
// races against concurrent logins surface as duplicate errors from the
// store; each one means another writer inserted the conflicting record, so
// the lookup is retried from the top.
func (r *Reconciler) Reconcile(ctx context.Context, identity *domain.CanonicalIdentity, prefs *LanguagePreferences) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		result, err := r.reconcileOnce(ctx, identity, prefs)
		if err == nil {
			return result, nil
		}
		if !isDuplicate(err) {
			return nil, err
		}
		lastErr = err
		r.logger.Warn(ctx, "reconcile lost a write race, retrying", map[string]interface{}{
			"provider":    string(identity.Provider),
			"external_id": identity.ExternalID,
			"attempt":     attempt + 1,
		})
	}
	return nil, fmt.Errorf("reconcile retries exhausted: %w", lastErr)
}

func isDuplicate(err error) bool {
	return errors.Is(err, domain.ErrDuplicateUsername) ||
		errors.Is(err, domain.ErrDuplicateEmail) ||
		errors.Is(err, domain.ErrDuplicateLink)
}

func (r *Reconciler) reconcileOnce(ctx context.Context, identity *domain.CanonicalIdentity, prefs *LanguagePreferences) (*Result, error) {
	link, err := r.store.GetLinkByExternalID(ctx, identity.Provider, identity.ExternalID)
	switch {
	case err == nil:
		user, err := r.touchLogin(ctx, link.UserID)
		if err != nil {
			return nil, err
		}
		return &Result{User: user}, nil
	case !errors.Is(err, domain.ErrLinkNotFound):
		return nil, err
	}

	// A matching email claims the existing account rather than creating a
	// duplicate; the email unique index would reject the duplicate anyway.
	if identity.Email != "" {
		user, err := r.store.GetUserByEmail(ctx, identity.Email)
		switch {
		case err == nil:
			if err := r.store.CreateLink(ctx, r.newLink(user.ID, identity)); err != nil {
				return nil, err
			}
			r.logger.Info(ctx, "linked provider identity to existing account", map[string]interface{}{
				"user_id":  user.ID,
				"provider": string(identity.Provider),
			})
			user, err = r.touchLogin(ctx, user.ID)
			if err != nil {
				return nil, err
			}
			return &Result{User: user}, nil
		case !errors.Is(err, domain.ErrUserNotFound):
			return nil, err
		}
	}

	return r.createAccount(ctx, identity, prefs)
}

func (r *Reconciler) createAccount(ctx context.Context, identity *domain.CanonicalIdentity, prefs *LanguagePreferences) (*Result, error) {
	var prefNative, prefStudy string
	if prefs != nil {
		prefNative = prefs.NativeCode
		prefStudy = prefs.StudyCode
	}
	nativeID, err := r.resolveLanguage(ctx, prefNative, r.defaultNative)
	if err != nil {
		return nil, err
	}
	studyID, err := r.resolveLanguage(ctx, prefStudy, r.defaultStudy)
	if err != nil {
		return nil, err
	}

	username, err := availableUsername(ctx, r.store, usernameBase(identity))
	if err != nil {
		return nil, err
	}

	email := identity.Email
	if email == "" {
		// Providers like Twitter never share an email; synthesize a unique
		// placeholder so the email constraint still holds.
		email = fmt.Sprintf("%s@%s.local", username, identity.Provider)
	}

	now := r.now().UTC()
	user := &domain.User{
		ID:               uuid.NewString(),
		Username:         username,
		Email:            email,
		FirstName:        identity.GivenName,
		LastName:         identity.FamilyName,
		AvatarURL:        identity.AvatarURL,
		IsActive:         true,
		EmailVerified:    identity.EmailVerified && identity.Email != "",
		NativeLanguageID: nativeID,
		StudyLanguageID:  studyID,
		CreatedAt:        now,
		UpdatedAt:        now,
		LastLoginAt:      &now,
	}

	if err := r.store.CreateUserWithLink(ctx, user, r.newLink(user.ID, identity)); err != nil {
		return nil, err
	}
	r.logger.Info(ctx, "created account from social login", map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
		"provider": string(identity.Provider),
	})
	return &Result{User: user, Created: true}, nil
}

func (r *Reconciler) newLink(userID string, identity *domain.CanonicalIdentity) *domain.SocialLink {
	now := r.now().UTC()
	return &domain.SocialLink{
		ID:          uuid.NewString(),
		UserID:      userID,
		Provider:    identity.Provider,
		ExternalID:  identity.ExternalID,
		Email:       identity.Email,
		Username:    identity.Username,
		DisplayName: identity.DisplayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (r *Reconciler) touchLogin(ctx context.Context, userID string) (*domain.User, error) {
	user, err := r.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := r.now().UTC()
	user.LastLoginAt = &now
	user.UpdatedAt = now
	if err := r.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// resolveLanguage maps language codes onto a catalogue entry, trying the
// client's preference first, then the configured default, then English.
// An unresolvable preference degrades to the defaults rather than failing
// the login.
func (r *Reconciler) resolveLanguage(ctx context.Context, preferred, fallback string) (string, error) {
	for _, code := range []string{preferred, fallback, "en"} {
		if code == "" {
			continue
		}
		lang, err := r.languages.GetLanguageByCode(ctx, code)
		if err == nil {
			return lang.ID, nil
		}
		if !errors.Is(err, domain.ErrLanguageNotFound) {
			return "", err
		}
	}
	return "", ErrDefaultLanguagesMissing
}
