// Package jwks validates owner access tokens against the issuer's JSON Web Key Set.
package jwks

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Validation failures. Errors returned by ValidateJWT wrap exactly one of these.
var (
	ErrMalformed = errors.New("jwt malformed")
	ErrExpired   = errors.New("jwt expired")
	ErrInvalid   = errors.New("jwt invalid")
)

const testKeyID = "test-key"

// JWKS represents a JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key
type JWK struct {
	Kty string `json:"kty"` // Key type
	Kid string `json:"kid"` // Key ID
	Use string `json:"use"` // Public key use
	Alg string `json:"alg"` // Algorithm
	Crv string `json:"crv"` // Curve
	X   string `json:"x"`   // X coordinate
}

// Claims are the validated claims of an owner token.
type Claims struct {
	Subject   string
	Issuer    string
	ExpiresAt time.Time
}

// Client handles JWKS discovery and caching
type Client struct {
	jwksURL    string
	httpClient *http.Client
	cache      *jwksCache
	cacheTTL   time.Duration

	// Set by NewTestClient; tokens are verified against this key instead of the JWKS.
	testKey ed25519.PrivateKey
}

// jwksCache stores cached JWKS with expiration
type jwksCache struct {
	jwks      *JWKS
	expiresAt time.Time
	mutex     sync.RWMutex
}

// NewClient creates a new JWKS client
func NewClient(jwksURL string) *Client {
	return &Client{
		jwksURL: jwksURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache:    &jwksCache{},
		cacheTTL: 5 * time.Minute,
	}
}

// URLForIssuer returns the well-known JWKS location of an issuer.
func URLForIssuer(issuer string) string {
	return strings.TrimRight(issuer, "/") + "/.well-known/jwks.json"
}

// NewTestClient creates a client that verifies tokens signed by SignTestToken.
func NewTestClient() *Client {
	_, priv, _ := ed25519.GenerateKey(nil)
	return &Client{testKey: priv, cache: &jwksCache{}}
}

// SignTestToken issues an EdDSA token for a test client.
func (c *Client) SignTestToken(subject, issuer, audience string, ttl time.Duration) (string, error) {
	if c.testKey == nil {
		return "", fmt.Errorf("SignTestToken requires a test client")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    issuer,
		Audience:  jwt.ClaimStrings{audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	token.Header["kid"] = testKeyID
	return token.SignedString(c.testKey)
}

// fetchJWKS fetches the JWKS from the issuer
func (c *Client) fetchJWKS(ctx context.Context) (*JWKS, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS fetch failed with status %d", resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}
	return &jwks, nil
}

// getJWKS retrieves JWKS from cache or fetches fresh if needed
func (c *Client) getJWKS(ctx context.Context) (*JWKS, error) {
	c.cache.mutex.RLock()
	if c.cache.jwks != nil && time.Now().Before(c.cache.expiresAt) {
		jwks := c.cache.jwks
		c.cache.mutex.RUnlock()
		return jwks, nil
	}
	c.cache.mutex.RUnlock()

	c.cache.mutex.Lock()
	defer c.cache.mutex.Unlock()

	// Double-check after acquiring write lock
	if c.cache.jwks != nil && time.Now().Before(c.cache.expiresAt) {
		return c.cache.jwks, nil
	}

	jwks, err := c.fetchJWKS(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.jwks = jwks
	c.cache.expiresAt = time.Now().Add(c.cacheTTL)
	return jwks, nil
}

// publicKey resolves the Ed25519 key for kid.
func (c *Client) publicKey(ctx context.Context, kid string) (ed25519.PublicKey, error) {
	if c.testKey != nil {
		if kid != testKeyID {
			return nil, fmt.Errorf("%w: key with kid %s not found", ErrInvalid, kid)
		}
		return c.testKey.Public().(ed25519.PublicKey), nil
	}

	jwks, err := c.getJWKS(ctx)
	if err != nil {
		return nil, err
	}
	for _, key := range jwks.Keys {
		if key.Kid != kid {
			continue
		}
		if key.Kty != "OKP" || key.Crv != "Ed25519" || key.Alg != "EdDSA" {
			return nil, fmt.Errorf("%w: unsupported key type or algorithm", ErrInvalid)
		}
		x, err := base64.RawURLEncoding.DecodeString(key.X)
		if err != nil || len(x) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("%w: failed to decode public key", ErrInvalid)
		}
		return ed25519.PublicKey(x), nil
	}
	return nil, fmt.Errorf("%w: key with kid %s not found", ErrInvalid, kid)
}

// ValidateJWT verifies the token signature, issuer, audience and expiry and
// returns its claims. The subject is required.
func (c *Client) ValidateJWT(ctx context.Context, tokenString, expectedIssuer, expectedAudience string) (*Claims, error) {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, fmt.Errorf("%w: missing or invalid kid in JWT header", ErrMalformed)
		}
		return c.publicKey(ctx, kid)
	}

	var rc jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &rc, keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithIssuer(expectedIssuer),
		jwt.WithAudience(expectedAudience),
		jwt.WithExpirationRequired(),
	)
	switch {
	case err == nil:
	case errors.Is(err, ErrMalformed), errors.Is(err, jwt.ErrTokenMalformed):
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if rc.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalid)
	}
	claims := &Claims{Subject: rc.Subject, Issuer: rc.Issuer}
	if rc.ExpiresAt != nil {
		claims.ExpiresAt = rc.ExpiresAt.Time
	}
	return claims, nil
}
