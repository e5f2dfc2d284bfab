package domain

import "context"

// UserRepository defines access to user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpdateUser(ctx context.Context, user *User) error
}

// SocialLinkRepository defines access to provider identity links.
type SocialLinkRepository interface {
	CreateLink(ctx context.Context, link *SocialLink) error
	GetLinkByExternalID(ctx context.Context, provider Provider, externalID string) (*SocialLink, error)
	// ListLinksByUserID returns the user's links sorted by creation time,
	// most recent first.
	ListLinksByUserID(ctx context.Context, userID string) ([]*SocialLink, error)
}

// IdentityStore is the combined store the reconciler works against.
// CreateUserWithLink persists a new account and its first social link as a
// single all-or-nothing unit; on conflict it returns one of the Duplicate
// errors without leaving a partial write behind.
type IdentityStore interface {
	UserRepository
	SocialLinkRepository
	CreateUserWithLink(ctx context.Context, user *User, link *SocialLink) error
}

// LanguageRepository defines access to the language catalogue.
type LanguageRepository interface {
	CreateLanguage(ctx context.Context, lang *Language) error
	GetLanguageByID(ctx context.Context, id string) (*Language, error)
	GetLanguageByCode(ctx context.Context, code string) (*Language, error)
	ListLanguages(ctx context.Context) ([]*Language, error)
}
