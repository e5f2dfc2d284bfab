package domain

import "time"

// SocialLink associates one external provider identity with one local user.
// A user may hold several links (one per provider identity); a given
// (provider, external_id) pair maps to at most one user.
type SocialLink struct {
	ID          string    `bson:"_id,omitempty" json:"id,omitempty"`
	UserID      string    `bson:"user_id" json:"user_id"`
	Provider    Provider  `bson:"provider" json:"provider"`
	ExternalID  string    `bson:"external_id" json:"external_id"`
	Email       string    `bson:"email,omitempty" json:"email,omitempty"`
	Username    string    `bson:"username,omitempty" json:"username,omitempty"`
	DisplayName string    `bson:"display_name,omitempty" json:"display_name,omitempty"`
	RawPayload  string    `bson:"raw_payload,omitempty" json:"-"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}
