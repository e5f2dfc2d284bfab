// Package token issues and verifies the signed session tokens used by the
// HTTP API: short-lived access tokens carrying user claims and long-lived
// refresh tokens exchangeable for new access tokens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wordnest/wordnest-api/domain"
)

var (
	// ErrTokenExpired is returned when a token is well-formed and correctly
	// signed but past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers every other verification failure: bad
	// signature, wrong issuer or audience, malformed input, wrong type.
	ErrTokenInvalid = errors.New("token invalid")
)

const refreshTokenType = "refresh"

// AccessClaims are the custom claims embedded in an access token. TokenType
// stays empty on access tokens; it is decoded so refresh tokens cannot be
// replayed against the access gate.
type AccessClaims struct {
	TokenType string   `json:"type,omitempty"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	IsActive  bool     `json:"is_active"`
	NativeLng string   `json:"native_lang,omitempty"`
	StudyLng  string   `json:"study_lang,omitempty"`
	Scopes    []string `json:"scopes"`
	jwt.RegisteredClaims
}

// RefreshClaims are the custom claims embedded in a refresh token.
type RefreshClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// Pair is one issued access/refresh token pair. ExpiresIn refers to the
// access token, in seconds.
type Pair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"-"`
	ExpiresIn    int64     `json:"expires_in"`
}

// AccessGrant is a newly minted access token without a refresh companion,
// as handed out by the refresh flow.
type AccessGrant struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"-"`
	ExpiresIn   int64     `json:"expires_in"`
}

// Codec signs and verifies session tokens with a single HMAC secret.
type Codec struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewCodec creates a Codec. The now hook is primarily for tests; passing nil
// uses time.Now.
func NewCodec(secret, issuer, audience string, accessTTL, refreshTTL time.Duration, now func() time.Time) *Codec {
	if now == nil {
		now = time.Now
	}
	return &Codec{
		secret:     []byte(secret),
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        now,
	}
}

// IssueAccess mints a standalone access token for the given user.
func (c *Codec) IssueAccess(user *domain.User) (*AccessGrant, error) {
	accessStr, expiresAt, err := c.signAccess(user)
	if err != nil {
		return nil, err
	}
	return &AccessGrant{
		AccessToken: accessStr,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		ExpiresIn:   int64(c.accessTTL.Seconds()),
	}, nil
}

// IssuePair mints an access/refresh token pair for the given user.
func (c *Codec) IssuePair(user *domain.User) (*Pair, error) {
	accessStr, accessExpiry, err := c.signAccess(user)
	if err != nil {
		return nil, err
	}

	now := c.now()
	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		TokenType: refreshTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.refreshTTL)),
		},
	})
	refreshStr, err := refresh.SignedString(c.secret)
	if err != nil {
		return nil, fmt.Errorf("signing refresh token: %w", err)
	}

	return &Pair{
		AccessToken:  accessStr,
		RefreshToken: refreshStr,
		TokenType:    "bearer",
		ExpiresAt:    accessExpiry,
		ExpiresIn:    int64(c.accessTTL.Seconds()),
	}, nil
}

func (c *Codec) signAccess(user *domain.User) (string, time.Time, error) {
	now := c.now()
	accessExpiry := now.Add(c.accessTTL)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		Username:  user.Username,
		Email:     user.Email,
		IsActive:  user.IsActive,
		NativeLng: user.NativeLanguageID,
		StudyLng:  user.StudyLanguageID,
		Scopes:    []string{"user", "study"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpiry),
		},
	})
	accessStr, err := access.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing access token: %w", err)
	}
	return accessStr, accessExpiry, nil
}

// VerifyAccess parses and validates an access token, returning its claims.
func (c *Codec) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.verify(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// VerifyRefresh parses and validates a refresh token. Access tokens are
// rejected here even though they share a signing key.
func (c *Codec) VerifyRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.verify(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.TokenType != refreshTokenType {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (c *Codec) verify(tokenStr string, claims jwt.Claims) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	_, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return ErrTokenInvalid
	}
	return nil
}
