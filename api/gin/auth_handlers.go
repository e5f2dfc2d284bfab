package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wordnest/wordnest-api/domain"
	"github.com/wordnest/wordnest-api/internal/reconcile"
	"github.com/wordnest/wordnest-api/internal/socialauth"
	"github.com/wordnest/wordnest-api/log"
	"github.com/wordnest/wordnest-api/services"
)

// AuthAPI exposes the /auth endpoints.
type AuthAPI struct {
	auth   *services.AuthService
	authmw *AuthMiddleware
	logger log.Logger
}

func NewAuthAPI(auth *services.AuthService, authmw *AuthMiddleware, logger log.Logger) *AuthAPI {
	return &AuthAPI{auth: auth, authmw: authmw, logger: logger}
}

// RegisterRoutes mounts the auth endpoints on the router.
func (a *AuthAPI) RegisterRoutes(router gin.IRouter) {
	group := router.Group("/auth")
	group.POST("/social-login", a.socialLogin)
	group.POST("/refresh", a.refresh)
	group.POST("/logout", a.authmw.RequireUser(), a.logout)
	group.GET("/me", a.authmw.RequireUser(), a.me)
}

type languagePreferences struct {
	NativeLanguageCode string `json:"native_language_code"`
	StudyLanguageCode  string `json:"study_language_code"`
}

type socialLoginRequest struct {
	Provider            string               `json:"provider" binding:"required"`
	Token               string               `json:"token" binding:"required"`
	LanguagePreferences *languagePreferences `json:"language_preferences"`
}

func (a *AuthAPI) socialLogin(c *gin.Context) {
	var req socialLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "provider and token are required"})
		return
	}

	var prefs *reconcile.LanguagePreferences
	if req.LanguagePreferences != nil {
		prefs = &reconcile.LanguagePreferences{
			NativeCode: req.LanguagePreferences.NativeLanguageCode,
			StudyCode:  req.LanguagePreferences.StudyLanguageCode,
		}
	}

	result, err := a.auth.SocialLogin(c.Request.Context(), domain.Provider(req.Provider), req.Token, prefs)
	if err != nil {
		a.writeLoginError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  result.Tokens.AccessToken,
		"refresh_token": result.Tokens.RefreshToken,
		"token_type":    result.Tokens.TokenType,
		"expires_in":    result.Tokens.ExpiresIn,
		"user":          result.User,
		"is_new_user":   result.Created,
	})
}

// writeLoginError maps service failures onto the login status contract:
// rejected credentials are 401, an unreachable provider is 502, anything
// else is an opaque 500.
func (a *AuthAPI) writeLoginError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, socialauth.ErrInvalidProviderToken),
		errors.Is(err, socialauth.ErrUnknownProvider),
		errors.Is(err, services.ErrUserInactive):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid provider token"})
	case errors.Is(err, socialauth.ErrProviderUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "provider unavailable"})
	default:
		a.logger.Error(c.Request.Context(), "social login failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (a *AuthAPI) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token is required"})
		return
	}

	grant, err := a.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		// Every refresh failure looks the same to the caller.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	c.JSON(http.StatusOK, grant)
}

// logout is informational: session tokens are stateless and simply expire.
// The endpoint exists so clients have a definite place to end a session.
func (a *AuthAPI) logout(c *gin.Context) {
	userID, _ := UserIDFromContext(c)
	a.logger.Info(c.Request.Context(), "user logged out", map[string]interface{}{"user_id": userID})
	c.JSON(http.StatusOK, gin.H{"message": "logged out; discard your tokens"})
}

func (a *AuthAPI) me(c *gin.Context) {
	user, ok := UserFromContext(c)
	if !ok {
		abortUnauthorized(c)
		return
	}

	profile, err := a.auth.GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		a.logger.Error(c.Request.Context(), "loading profile failed", err, map[string]interface{}{"user_id": user.ID})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	providers := make([]string, 0, len(profile.Links))
	for _, link := range profile.Links {
		providers = append(providers, string(link.Provider))
	}

	c.JSON(http.StatusOK, gin.H{
		"user":             profile.User,
		"linked_providers": providers,
		"primary_provider": string(profile.PrimaryProvider),
	})
}
