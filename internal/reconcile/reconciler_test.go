package reconcile

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordnest/wordnest-api/domain"
	"github.com/wordnest/wordnest-api/internal/store/memory"
	"github.com/wordnest/wordnest-api/log"
)

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.CreateLanguage(ctx, &domain.Language{ID: "lang-en", Code: "en", Name: "English"}))
	require.NoError(t, store.CreateLanguage(ctx, &domain.Language{ID: "lang-es", Code: "es", Name: "Spanish"}))
	return store
}

func newTestReconciler(store *memory.Store) *Reconciler {
	logger := log.NewZerologAdapter(zerolog.Disabled, false)
	return New(store, store, "en", "es", logger, nil)
}

func googleIdentity() *domain.CanonicalIdentity {
	return &domain.CanonicalIdentity{
		Provider:      domain.ProviderGoogle,
		ExternalID:    "g-100",
		Email:         "alice@gmail.com",
		EmailVerified: true,
		GivenName:     "Alice",
		FamilyName:    "Smith",
		DisplayName:   "Alice Smith",
		AvatarURL:     "https://lh3.example/alice.jpg",
	}
}

func TestReconcileCreatesAccount(t *testing.T) {
	store := seededStore(t)
	r := newTestReconciler(store)
	ctx := context.Background()

	result, err := r.Reconcile(ctx, googleIdentity(), nil)
	require.NoError(t, err)

	assert.True(t, result.Created)
	user := result.User
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@gmail.com", user.Email)
	assert.Equal(t, "Alice", user.FirstName)
	assert.Equal(t, "Smith", user.LastName)
	assert.True(t, user.IsActive)
	assert.True(t, user.EmailVerified)
	assert.Equal(t, "lang-en", user.NativeLanguageID)
	assert.Equal(t, "lang-es", user.StudyLanguageID)
	require.NotNil(t, user.LastLoginAt)

	link, err := store.GetLinkByExternalID(ctx, domain.ProviderGoogle, "g-100")
	require.NoError(t, err)
	assert.Equal(t, user.ID, link.UserID)
}

func TestReconcileReturningUser(t *testing.T) {
	store := seededStore(t)
	r := newTestReconciler(store)
	ctx := context.Background()

	first, err := r.Reconcile(ctx, googleIdentity(), nil)
	require.NoError(t, err)

	second, err := r.Reconcile(ctx, googleIdentity(), nil)
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Equal(t, first.User.ID, second.User.ID)
}

func TestReconcileLinksByVerifiedEmail(t *testing.T) {
	store := seededStore(t)
	r := newTestReconciler(store)
	ctx := context.Background()

	google, err := r.Reconcile(ctx, googleIdentity(), nil)
	require.NoError(t, err)

	apple, err := r.Reconcile(ctx, &domain.CanonicalIdentity{
		Provider:      domain.ProviderApple,
		ExternalID:    "001234.abcdef",
		Email:         "alice@gmail.com",
		EmailVerified: true,
	}, nil)
	require.NoError(t, err)

	assert.False(t, apple.Created)
	assert.Equal(t, google.User.ID, apple.User.ID)

	links, err := store.ListLinksByUserID(ctx, google.User.ID)
	require.NoError(t, err)
	assert.Len(t, links, 2)
}

func TestReconcileLinksByUnverifiedEmail(t *testing.T) {
	store := seededStore(t)
	r := newTestReconciler(store)
	ctx := context.Background()

	google, err := r.Reconcile(ctx, googleIdentity(), nil)
	require.NoError(t, err)

	other, err := r.Reconcile(ctx, &domain.CanonicalIdentity{
		Provider:      domain.ProviderFacebook,
		ExternalID:    "fb-55",
		Email:         "alice@gmail.com",
		EmailVerified: false,
	}, nil)
	require.NoError(t, err)

	assert.False(t, other.Created)
	assert.Equal(t, google.User.ID, other.User.ID)

	links, err := store.ListLinksByUserID(ctx, google.User.ID)
	require.NoError(t, err)
	assert.Len(t, links, 2)
}

func TestReconcilePlaceholderEmail(t *testing.T) {
	store := seededStore(t)
	r := newTestReconciler(store)
	ctx := context.Background()

	result, err := r.Reconcile(ctx, &domain.CanonicalIdentity{
		Provider:   domain.ProviderTwitter,
		ExternalID: "tw-42",
		Username:   "danb",
	}, nil)
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.Equal(t, "danb", result.User.Username)
	assert.Equal(t, "danb@twitter.local", result.User.Email)
	assert.False(t, result.User.EmailVerified)
}

func TestReconcileUsernameCollision(t *testing.T) {
	store := seededStore(t)
	r := newTestReconciler(store)
	ctx := context.Background()

	first, err := r.Reconcile(ctx, &domain.CanonicalIdentity{
		Provider: domain.ProviderTwitter, ExternalID: "tw-1", Username: "sam",
	}, nil)
	require.NoError(t, err)
	second, err := r.Reconcile(ctx, &domain.CanonicalIdentity{
		Provider: domain.ProviderMock, ExternalID: "mk-1", Username: "sam",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "sam", first.User.Username)
	assert.Equal(t, "sam_1", second.User.Username)
}

func TestReconcileLanguagePreferences(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()
	require.NoError(t, store.CreateLanguage(ctx, &domain.Language{ID: "lang-fr", Code: "fr", Name: "French"}))

	r := newTestReconciler(store)

	result, err := r.Reconcile(ctx, googleIdentity(), &LanguagePreferences{
		NativeCode: "fr",
		StudyCode:  "xx", // unknown, degrades to the configured default
	})
	require.NoError(t, err)

	assert.Equal(t, "lang-fr", result.User.NativeLanguageID)
	assert.Equal(t, "lang-es", result.User.StudyLanguageID)
}

func TestReconcileLanguageFallback(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.CreateLanguage(ctx, &domain.Language{ID: "lang-en", Code: "en", Name: "English"}))

	logger := log.NewZerologAdapter(zerolog.Disabled, false)
	r := New(store, store, "en", "sw", logger, nil)

	result, err := r.Reconcile(ctx, googleIdentity(), nil)
	require.NoError(t, err)
	assert.Equal(t, "lang-en", result.User.StudyLanguageID)
}

func TestReconcileDefaultLanguagesMissing(t *testing.T) {
	store := memory.New()
	r := newTestReconciler(store)

	_, err := r.Reconcile(context.Background(), googleIdentity(), nil)
	assert.ErrorIs(t, err, ErrDefaultLanguagesMissing)
}

func TestReconcileConcurrentSameIdentity(t *testing.T) {
	store := seededStore(t)
	r := newTestReconciler(store)
	ctx := context.Background()

	const workers = 8
	ids := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := r.Reconcile(ctx, googleIdentity(), nil)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = result.User.ID
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i], fmt.Sprintf("worker %d resolved a different user", i))
	}

	links, err := store.ListLinksByUserID(ctx, ids[0])
	require.NoError(t, err)
	assert.Len(t, links, 1)
}

func TestReconcileTouchesLastLogin(t *testing.T) {
	store := seededStore(t)
	logger := log.NewZerologAdapter(zerolog.Disabled, false)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	r := New(store, store, "en", "es", logger, func() time.Time { return now })
	ctx := context.Background()

	first, err := r.Reconcile(ctx, googleIdentity(), nil)
	require.NoError(t, err)
	require.NotNil(t, first.User.LastLoginAt)
	assert.Equal(t, base, *first.User.LastLoginAt)

	now = base.Add(48 * time.Hour)
	second, err := r.Reconcile(ctx, googleIdentity(), nil)
	require.NoError(t, err)
	require.NotNil(t, second.User.LastLoginAt)
	assert.Equal(t, now, *second.User.LastLoginAt)
}
