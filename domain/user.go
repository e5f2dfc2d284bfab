package domain

import "time"

// User represents a local account in the vocabulary catalogue.
//
// Accounts are only ever created through social login; there is no password
// credential. Username and email are unique across the collection.
type User struct {
	ID               string     `bson:"_id,omitempty" json:"id"`
	Username         string     `bson:"username" json:"username"`
	Email            string     `bson:"email" json:"email"`
	FirstName        string     `bson:"first_name,omitempty" json:"first_name"`
	LastName         string     `bson:"last_name,omitempty" json:"last_name"`
	AvatarURL        string     `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	IsActive         bool       `bson:"is_active" json:"is_active"`
	EmailVerified    bool       `bson:"email_verified" json:"email_verified"`
	NativeLanguageID string     `bson:"native_language_id,omitempty" json:"native_language_id,omitempty"`
	StudyLanguageID  string     `bson:"study_language_id,omitempty" json:"study_language_id,omitempty"`
	CreatedAt        time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `bson:"updated_at" json:"updated_at"`
	LastLoginAt      *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
}
