package mongodb

import (
	"strings"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wordnest/wordnest-api/domain"
)

// translateDuplicate maps a duplicate-key write error onto the domain
// error for the violated constraint. The server embeds the index name in
// the error message, which is the only place it surfaces.
func translateDuplicate(err error) error {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return err
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "username_1"):
		return domain.ErrDuplicateUsername
	case strings.Contains(msg, "email_1"):
		return domain.ErrDuplicateEmail
	case strings.Contains(msg, "provider_1_external_id_1"):
		return domain.ErrDuplicateLink
	case strings.Contains(msg, "code_1"):
		return domain.ErrDuplicateLanguage
	default:
		return err
	}
}
