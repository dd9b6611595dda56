package rest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/counselpoint/gateway/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret")

	tok, err := svc.GenerateToken("U1", domain.RoleCounselor)
	require.NoError(t, err)

	uid, role, err := svc.ValidateToken(tok)
	require.NoError(t, err)
	require.Equal(t, domain.UserID("U1"), uid)
	require.Equal(t, domain.RoleCounselor, role)
}

func TestTokenWrongSecret(t *testing.T) {
	tok, err := NewTokenService("secret-a").GenerateToken("U1", domain.RoleStudent)
	require.NoError(t, err)

	_, _, err = NewTokenService("secret-b").ValidateToken(tok)
	require.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	svc := NewTokenService("test-secret")
	claims := jwt.MapClaims{
		"sub":  "U1",
		"role": string(domain.RoleStudent),
		"iat":  time.Now().Add(-2 * time.Hour).Unix(),
		"exp":  time.Now().Add(-time.Hour).Unix(),
		"iss":  "counselpoint-portal",
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, _, err = svc.ValidateToken(tok)
	require.Error(t, err)
}

func TestTokenRejectsUnexpectedAlg(t *testing.T) {
	svc := NewTokenService("test-secret")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "U1",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, _, err = svc.ValidateToken(tok)
	require.Error(t, err)
}

func TestTokenGarbage(t *testing.T) {
	svc := NewTokenService("test-secret")
	_, _, err := svc.ValidateToken("not-a-jwt")
	require.Error(t, err)
}
