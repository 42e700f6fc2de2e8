package jwks

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	issuer   = "https://auth.example"
	audience = "proofwall-embed"
)

func TestTestClientRoundTrip(t *testing.T) {
	c := NewTestClient()
	token, err := c.SignTestToken("owner-1", issuer, audience, time.Hour)
	require.NoError(t, err)

	claims, err := c.ValidateJWT(context.Background(), token, issuer, audience)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", claims.Subject)
	assert.Equal(t, issuer, claims.Issuer)
}

func TestValidateJWTFailures(t *testing.T) {
	c := NewTestClient()
	other := NewTestClient()

	valid, _ := c.SignTestToken("owner-1", issuer, audience, time.Hour)
	expired, _ := c.SignTestToken("owner-1", issuer, audience, -time.Minute)
	wrongAud, _ := c.SignTestToken("owner-1", issuer, "someone-else", time.Hour)
	foreign, _ := other.SignTestToken("owner-1", issuer, audience, time.Hour)
	noSub, _ := c.SignTestToken("", issuer, audience, time.Hour)

	tests := []struct {
		name  string
		token string
		iss   string
		want  error
	}{
		{"garbage", "not-a-token", issuer, ErrMalformed},
		{"expired", expired, issuer, ErrExpired},
		{"wrong issuer", valid, "https://evil.example", ErrInvalid},
		{"wrong audience", wrongAud, issuer, ErrInvalid},
		{"foreign signature", foreign, issuer, ErrInvalid},
		{"missing subject", noSub, issuer, ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.ValidateJWT(context.Background(), tt.token, tt.iss, audience)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateJWTAgainstJWKS(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		_ = json.NewEncoder(w).Encode(JWKS{Keys: []JWK{{
			Kty: "OKP", Kid: "k1", Use: "sig", Alg: "EdDSA", Crv: "Ed25519",
			X: base64.RawURLEncoding.EncodeToString(pub),
		}}})
	}))
	defer srv.Close()

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.RegisteredClaims{
		Subject:   "owner-2",
		Issuer:    issuer,
		Audience:  jwt.ClaimStrings{audience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	token.Header["kid"] = "k1"
	signed, err := token.SignedString(priv)
	require.NoError(t, err)

	c := NewClient(srv.URL)
	for i := 0; i < 2; i++ {
		claims, err := c.ValidateJWT(context.Background(), signed, issuer, audience)
		require.NoError(t, err)
		assert.Equal(t, "owner-2", claims.Subject)
	}
	assert.EqualValues(t, 1, fetches.Load(), "JWKS is cached")

	token.Header["kid"] = "unknown"
	unknownKid, _ := token.SignedString(priv)
	_, err = c.ValidateJWT(context.Background(), unknownKid, issuer, audience)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestURLForIssuer(t *testing.T) {
	assert.Equal(t, "https://auth.example/.well-known/jwks.json", URLForIssuer("https://auth.example/"))
}
