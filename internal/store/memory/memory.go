// Package memory provides an in-memory store used by tests and by local
// development runs without a MongoDB instance. It enforces the same unique
// constraints as the MongoDB store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wordnest/wordnest-api/domain"
)

// Store holds all collections behind one mutex, which makes the combined
// user-plus-link insert trivially atomic.
type Store struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	links     map[string]*domain.SocialLink
	languages map[string]*domain.Language
}

var (
	_ domain.IdentityStore      = (*Store)(nil)
	_ domain.LanguageRepository = (*Store)(nil)
)

func New() *Store {
	return &Store{
		users:     make(map[string]*domain.User),
		links:     make(map[string]*domain.SocialLink),
		languages: make(map[string]*domain.Language),
	}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

func cloneLink(l *domain.SocialLink) *domain.SocialLink {
	c := *l
	return &c
}

func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createUserLocked(user)
}

func (s *Store) createUserLocked(user *domain.User) error {
	for _, existing := range s.users {
		if existing.Username == user.Username {
			return domain.ErrDuplicateUsername
		}
		if existing.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			return cloneUser(user), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *Store) UpdateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	for _, existing := range s.users {
		if existing.ID == user.ID {
			continue
		}
		if existing.Username == user.Username {
			return domain.ErrDuplicateUsername
		}
		if existing.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}
	s.users[user.ID] = cloneUser(user)
	return nil
}

func (s *Store) CreateLink(_ context.Context, link *domain.SocialLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLinkLocked(link)
}

func (s *Store) createLinkLocked(link *domain.SocialLink) error {
	for _, existing := range s.links {
		if existing.Provider == link.Provider && existing.ExternalID == link.ExternalID {
			return domain.ErrDuplicateLink
		}
	}
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	s.links[link.ID] = cloneLink(link)
	return nil
}

func (s *Store) GetLinkByExternalID(_ context.Context, provider domain.Provider, externalID string) (*domain.SocialLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, link := range s.links {
		if link.Provider == provider && link.ExternalID == externalID {
			return cloneLink(link), nil
		}
	}
	return nil, domain.ErrLinkNotFound
}

func (s *Store) ListLinksByUserID(_ context.Context, userID string) ([]*domain.SocialLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.SocialLink
	for _, link := range s.links {
		if link.UserID == userID {
			out = append(out, cloneLink(link))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CreateUserWithLink inserts both records under one lock so a conflict on
// either leaves the store untouched.
func (s *Store) CreateUserWithLink(_ context.Context, user *domain.User, link *domain.SocialLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.links {
		if existing.Provider == link.Provider && existing.ExternalID == link.ExternalID {
			return domain.ErrDuplicateLink
		}
	}
	if err := s.createUserLocked(user); err != nil {
		return err
	}
	link.UserID = user.ID
	return s.createLinkLocked(link)
}

func (s *Store) CreateLanguage(_ context.Context, lang *domain.Language) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.languages {
		if existing.Code == lang.Code {
			return domain.ErrDuplicateLanguage
		}
	}
	if lang.ID == "" {
		lang.ID = uuid.NewString()
	}
	if lang.CreatedAt.IsZero() {
		lang.CreatedAt = time.Now().UTC()
	}
	clone := *lang
	s.languages[lang.ID] = &clone
	return nil
}

func (s *Store) GetLanguageByID(_ context.Context, id string) (*domain.Language, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lang, ok := s.languages[id]
	if !ok {
		return nil, domain.ErrLanguageNotFound
	}
	clone := *lang
	return &clone, nil
}

func (s *Store) GetLanguageByCode(_ context.Context, code string) (*domain.Language, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, lang := range s.languages {
		if lang.Code == code {
			clone := *lang
			return &clone, nil
		}
	}
	return nil, domain.ErrLanguageNotFound
}

func (s *Store) ListLanguages(_ context.Context) ([]*domain.Language, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Language, 0, len(s.languages))
	for _, lang := range s.languages {
		clone := *lang
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
