package socialauth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jellydator/ttlcache/v3"

	"github.com/wordnest/wordnest-api/domain"
)

var AppleKeysEndpoint = "https://appleid.apple.com/auth/keys"

const (
	appleIssuer      = "https://appleid.apple.com"
	appleKeysCacheID = "apple-signing-keys"
	appleKeysTTL     = time.Hour
)

// AppleValidator verifies the identity token produced by Sign in with
// Apple. Unlike the other providers there is no introspection call; the
// token is an RS256 JWT verified locally against Apple's published signing
// keys, which are cached between logins.
type AppleValidator struct {
	clientID string
	client   *http.Client
	keys     *ttlcache.Cache[string, map[string]*rsa.PublicKey]
}

func NewAppleValidator(clientID string, client *http.Client) *AppleValidator {
	cache := ttlcache.New[string, map[string]*rsa.PublicKey](
		ttlcache.WithTTL[string, map[string]*rsa.PublicKey](appleKeysTTL),
		ttlcache.WithDisableTouchOnHit[string, map[string]*rsa.PublicKey](),
	)
	go cache.Start()
	return &AppleValidator{clientID: clientID, client: client, keys: cache}
}

func (v *AppleValidator) Provider() domain.Provider { return domain.ProviderApple }

type appleJWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type appleJWKS struct {
	Keys []appleJWK `json:"keys"`
}

func (v *AppleValidator) Validate(ctx context.Context, token string) (*domain.CanonicalIdentity, error) {
	keys, err := v.signingKeys(ctx)
	if err != nil {
		return nil, err
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(appleIssuer),
		jwt.WithExpirationRequired(),
	}
	if v.clientID != "" {
		opts = append(opts, jwt.WithAudience(v.clientID))
	}
	parser := jwt.NewParser(opts...)

	claims := jwt.MapClaims{}
	_, err = parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		key, ok := keys[kid]
		if !ok {
			return nil, fmt.Errorf("no signing key for kid %q", kid)
		}
		return key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProviderToken, err)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidProviderToken
	}
	email, _ := claims["email"].(string)

	return &domain.CanonicalIdentity{
		Provider:      domain.ProviderApple,
		ExternalID:    sub,
		Email:         email,
		EmailVerified: appleEmailVerified(claims["email_verified"]) && email != "",
	}, nil
}

// appleEmailVerified handles Apple sending the claim as either a bool or
// the strings "true"/"false".
func appleEmailVerified(claim any) bool {
	switch value := claim.(type) {
	case bool:
		return value
	case string:
		return value == "true"
	default:
		return false
	}
}

// signingKeys returns Apple's current RSA signing keys keyed by kid,
// fetching them at most once per cache TTL.
func (v *AppleValidator) signingKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	if item := v.keys.Get(appleKeysCacheID); item != nil {
		return item.Value(), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, AppleKeysEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching signing keys: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: signing keys status %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var jwks appleJWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("%w: decoding signing keys: %v", ErrProviderUnavailable, err)
	}

	keys := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for _, jwk := range jwks.Keys {
		if jwk.Kty != "RSA" {
			continue
		}
		key, err := jwkToRSAPublicKey(jwk)
		if err != nil {
			continue
		}
		keys[jwk.Kid] = key
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no usable signing keys", ErrProviderUnavailable)
	}

	v.keys.Set(appleKeysCacheID, keys, ttlcache.DefaultTTL)
	return keys, nil
}

// jwkToRSAPublicKey builds an rsa.PublicKey from the base64url modulus and
// exponent of a JWK.
func jwkToRSAPublicKey(jwk appleJWK) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("decoding modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("decoding exponent: %w", err)
	}
	if len(eBytes) == 0 {
		return nil, errors.New("empty exponent")
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
