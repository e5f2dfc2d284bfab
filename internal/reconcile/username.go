package reconcile

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/wordnest/wordnest-api/domain"
)

var usernameStrip = regexp.MustCompile(`[^a-z0-9_]`)

// usernameBase derives a username candidate from the identity, preferring
// the provider's own handle, then the email local part, then the real name.
func usernameBase(identity *domain.CanonicalIdentity) string {
	candidates := []string{identity.Username}
	if at := strings.IndexByte(identity.Email, '@'); at > 0 {
		candidates = append(candidates, identity.Email[:at])
	}
	if identity.GivenName != "" || identity.FamilyName != "" {
		candidates = append(candidates, strings.TrimSpace(identity.GivenName+" "+identity.FamilyName))
	}

	for _, candidate := range candidates {
		base := sanitizeUsername(candidate)
		if base != "" {
			return base
		}
	}
	// An empty base gets the same short-name padding as a too-short one.
	return "user_"
}

func sanitizeUsername(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, " ", "_")
	s = usernameStrip.ReplaceAllString(s, "")
	if s == "" {
		return ""
	}
	if len(s) < 3 {
		s = "user_" + s
	}
	return s
}

// availableUsername probes base, base_1, base_2 and so on until a free
// username is found.
func availableUsername(ctx context.Context, users domain.UserRepository, base string) (string, error) {
	candidate := base
	for i := 0; ; i++ {
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d", base, i)
		}
		_, err := users.GetUserByUsername(ctx, candidate)
		if errors.Is(err, domain.ErrUserNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
}
