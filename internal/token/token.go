// Package token signs and parses the JWT session tokens issued by the
// server.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/atikhonov/helpdesk/internal/models"
)

// Claims is the JWT payload carried by a session token.
type Claims struct {
	UserID string      `json:"uid"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// DefaultTTL is the lifetime of issued session tokens.
const DefaultTTL = 24 * time.Hour

// Sign issues an HS256 token for the given user.
func Sign(secret, userID, email string, role models.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID, Email: email, Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}).SignedString([]byte(secret))
}

// Parse validates a token string and returns its claims.
func Parse(secret, tokenString string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}
