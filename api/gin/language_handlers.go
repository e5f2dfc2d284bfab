package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wordnest/wordnest-api/domain"
	"github.com/wordnest/wordnest-api/log"
)

// LanguageAPI exposes the language catalogue endpoints.
type LanguageAPI struct {
	languages domain.LanguageRepository
	authmw    *AuthMiddleware
	logger    log.Logger
}

func NewLanguageAPI(languages domain.LanguageRepository, authmw *AuthMiddleware, logger log.Logger) *LanguageAPI {
	return &LanguageAPI{languages: languages, authmw: authmw, logger: logger}
}

// RegisterRoutes mounts the language endpoints. Reads are public; writes
// need an authenticated caller.
func (a *LanguageAPI) RegisterRoutes(router gin.IRouter) {
	group := router.Group("/languages")
	group.GET("", a.list)
	group.GET("/:code", a.getByCode)
	group.POST("", a.authmw.RequireUser(), a.create)
}

func (a *LanguageAPI) list(c *gin.Context) {
	langs, err := a.languages.ListLanguages(c.Request.Context())
	if err != nil {
		a.logger.Error(c.Request.Context(), "listing languages failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"languages": langs})
}

func (a *LanguageAPI) getByCode(c *gin.Context) {
	lang, err := a.languages.GetLanguageByCode(c.Request.Context(), c.Param("code"))
	if errors.Is(err, domain.ErrLanguageNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "language not found"})
		return
	}
	if err != nil {
		a.logger.Error(c.Request.Context(), "loading language failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, lang)
}

type createLanguageRequest struct {
	Code       string `json:"code" binding:"required"`
	Name       string `json:"name" binding:"required"`
	NativeName string `json:"native_name"`
}

func (a *LanguageAPI) create(c *gin.Context) {
	var req createLanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code and name are required"})
		return
	}

	lang := &domain.Language{Code: req.Code, Name: req.Name, NativeName: req.NativeName}
	err := a.languages.CreateLanguage(c.Request.Context(), lang)
	if errors.Is(err, domain.ErrDuplicateLanguage) {
		c.JSON(http.StatusConflict, gin.H{"error": "language code already exists"})
		return
	}
	if err != nil {
		a.logger.Error(c.Request.Context(), "creating language failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, lang)
}
