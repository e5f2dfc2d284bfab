package domain

import "time"

// Language is a catalogue entry referenced by users as native or study
// language. Code is a unique ISO 639-1 code such as "en" or "es".
type Language struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	Code       string    `bson:"code" json:"code"`
	Name       string    `bson:"name" json:"name"`
	NativeName string    `bson:"native_name,omitempty" json:"native_name,omitempty"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}
