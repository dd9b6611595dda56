// Package rest is the credential-issuer surface the gateway's REST
// collaborators consume: join-material issuance for scheduled sessions
// and ad-hoc room lifecycle.
package rest

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/counselpoint/gateway/internal/domain"
)

// TokenService validates the portal's bearer tokens. The portal mints
// them at login; the gateway only verifies.
type TokenService struct {
	secretKey []byte
	issuer    string
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secretKey: []byte(secret),
		issuer:    "counselpoint-portal",
	}
}

// GenerateToken exists for tests and local tooling; production tokens
// come from the portal with the same claims.
func (s *TokenService) GenerateToken(userID domain.UserID, role domain.Role) (string, error) {
	claims := jwt.MapClaims{
		"sub":  string(userID),
		"role": string(role),
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
		"iss":  s.issuer,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ValidateToken parses and validates the JWT string, returning the
// caller's identity and role.
func (s *TokenService) ValidateToken(tokenStr string) (domain.UserID, domain.Role, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil || !token.Valid {
		return "", "", fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("invalid claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", "", fmt.Errorf("subject not found in token")
	}
	role, _ := claims["role"].(string)
	return domain.UserID(sub), domain.Role(role), nil
}
