package domain

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrLinkNotFound     = errors.New("social link not found")
	ErrLanguageNotFound = errors.New("language not found")

	// Duplicate errors mirror the store's unique constraints so callers can
	// retry conflicting writes instead of racing check-then-insert.
	ErrDuplicateUsername = errors.New("username already taken")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateLink     = errors.New("social link already exists")
	ErrDuplicateLanguage = errors.New("language code already exists")
)
