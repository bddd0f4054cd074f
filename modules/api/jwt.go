package api

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// Claims are the token claims the API cares about. Tokens are issued by
// an external identity provider; this service only verifies them.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// ActorID returns the user identity carried by the token, falling back to
// the standard subject claim.
func (c *Claims) ActorID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// Verifier validates externally issued HS256 tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier for the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// ValidateToken validates the token and returns the claims if valid.
func (v *Verifier) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ActorID() == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
