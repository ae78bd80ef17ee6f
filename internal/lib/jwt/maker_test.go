package jwt

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTMaker_GenerateAndParseToken(t *testing.T) {
	tokenTTL := 15 * time.Minute
	maker := NewJWTMaker("test_secret_key_1234567890", tokenTTL)

	for _, operatorID := range []string{"65f1c0ffee0000000000aaaa", "66aa00000000000000000001"} {
		t.Run(operatorID, func(t *testing.T) {
			token, err := maker.GenerateToken(operatorID)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)
			assert.Equal(t, operatorID, claims.OperatorID())
			assert.NotEmpty(t, claims.ID)
			assert.WithinDuration(t, time.Now(), claims.IssuedAtTime(), time.Second)
			assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestJWTMaker_GenerateToken_EmptySubject(t *testing.T) {
	maker := NewJWTMaker("secret", time.Minute)
	token, err := maker.GenerateToken("")
	assert.ErrorIs(t, err, ErrMissingSubject)
	assert.Empty(t, token)
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	maker := NewJWTMaker(secretKey, 15*time.Minute)

	validToken, err := maker.GenerateToken("operator")
	require.NoError(t, err)

	expired, err := NewJWTMaker(secretKey, -time.Hour).GenerateToken("operator")
	require.NoError(t, err)

	wrongSecret, err := NewJWTMaker("wrong_secret_key", 15*time.Minute).GenerateToken("operator")
	require.NoError(t, err)

	noneAlg, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, CustomClaims{
		RegisteredClaims: gojwt.RegisteredClaims{Subject: "operator", Issuer: "hotel-console"},
	}).SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	foreignIssuer, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, CustomClaims{
		RegisteredClaims: gojwt.RegisteredClaims{Subject: "operator", Issuer: "someone-else"},
	}).SignedString([]byte(secretKey))
	require.NoError(t, err)

	noSubject, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, CustomClaims{
		RegisteredClaims: gojwt.RegisteredClaims{Issuer: "hotel-console"},
	}).SignedString([]byte(secretKey))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "expired token", token: expired},
		{name: "wrong secret key", token: wrongSecret},
		{name: "tampered token", token: validToken + "tampered"},
		{name: "none algorithm", token: noneAlg},
		{name: "foreign issuer", token: foreignIssuer},
		{name: "missing subject", token: noSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTMaker_TokenExpiration(t *testing.T) {
	maker := NewJWTMaker("test_secret_key", 2*time.Second)

	token, err := maker.GenerateToken("operator")
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	require.NoError(t, err)

	time.Sleep(3 * time.Second)

	_, err = maker.ParseToken(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}
