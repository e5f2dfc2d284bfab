// Package api wires the HTTP surface: authentication middleware plus the
// auth and language handlers.
package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wordnest/wordnest-api/domain"
	"github.com/wordnest/wordnest-api/internal/token"
	"github.com/wordnest/wordnest-api/log"
)

// Context keys under which the middleware stores the authenticated caller.
const (
	ContextUserKey   = "authUser"
	ContextUserIDKey = "authUserID"
)

// AuthMiddleware gates requests on a valid access token. All rejection
// responses are identical so callers cannot probe which check failed.
type AuthMiddleware struct {
	codec  *token.Codec
	users  domain.UserRepository
	logger log.Logger
}

func NewAuthMiddleware(codec *token.Codec, users domain.UserRepository, logger log.Logger) *AuthMiddleware {
	return &AuthMiddleware{codec: codec, users: users, logger: logger}
}

// bearerToken extracts the credential from an Authorization header.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
}

// authenticate resolves the access token to an active user. The returned
// bool reports success; every failure path is equivalent to the caller.
func (m *AuthMiddleware) authenticate(c *gin.Context) (*domain.User, bool) {
	tokenStr, ok := bearerToken(c)
	if !ok {
		return nil, false
	}
	claims, err := m.codec.VerifyAccess(tokenStr)
	if err != nil {
		return nil, false
	}
	// Subjects are always UUIDs; anything else is a forged or foreign token.
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, false
	}
	user, err := m.users.GetUserByID(c.Request.Context(), claims.Subject)
	if err != nil {
		m.logger.Debug(c.Request.Context(), "token subject has no account", map[string]interface{}{
			"subject": claims.Subject,
		})
		return nil, false
	}
	if !user.IsActive {
		return nil, false
	}
	return user, true
}

// RequireUser rejects the request unless it carries a valid access token
// for an active account. The user is loaded and stored in the context.
func (m *AuthMiddleware) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := m.authenticate(c)
		if !ok {
			abortUnauthorized(c)
			return
		}
		c.Set(ContextUserKey, user)
		c.Set(ContextUserIDKey, user.ID)
		c.Next()
	}
}

// OptionalUser loads the user when a valid token is present but lets
// anonymous requests through.
func (m *AuthMiddleware) OptionalUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, ok := m.authenticate(c); ok {
			c.Set(ContextUserKey, user)
			c.Set(ContextUserIDKey, user.ID)
		}
		c.Next()
	}
}

// RequireUserID verifies the token without touching the user store. Useful
// on hot paths that only need the caller's ID.
func (m *AuthMiddleware) RequireUserID() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c)
			return
		}
		claims, err := m.codec.VerifyAccess(tokenStr)
		if err != nil {
			abortUnauthorized(c)
			return
		}
		if _, err := uuid.Parse(claims.Subject); err != nil {
			abortUnauthorized(c)
			return
		}
		c.Set(ContextUserIDKey, claims.Subject)
		c.Next()
	}
}

// UserFromContext returns the user stored by RequireUser or OptionalUser.
func UserFromContext(c *gin.Context) (*domain.User, bool) {
	value, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*domain.User)
	return user, ok
}

// UserIDFromContext returns the authenticated caller's ID.
func UserIDFromContext(c *gin.Context) (string, bool) {
	value, ok := c.Get(ContextUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := value.(string)
	return id, ok
}
