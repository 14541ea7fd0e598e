// Package auth mints and verifies self-contained session tokens. A token is
// a bearer credential: whoever presents a valid, unexpired token is treated
// as its subject. There is no server-side revocation; logout only clears the
// client cookie and a leaked token stays valid until expiry. This is a
// documented trade-off of the stateless design.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the registered claims plus the user identifier needed to
// re-resolve identity on each request.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

// TokenService signs and verifies session tokens with an HS256 key and a
// single validity duration. Password and federated logins share the same
// policy.
type TokenService struct {
	secretKey []byte
	validity  time.Duration
}

func NewTokenService(secretKey []byte, validity time.Duration) *TokenService {
	return &TokenService{secretKey: secretKey, validity: validity}
}

// Issue returns a signed token identifying userID, expiring after the
// configured validity duration.
func (s *TokenService) Issue(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
		},
		UserID: userID,
	})
	return token.SignedString(s.secretKey)
}

// Resolve returns the user identifier embedded in the token, or "" if the
// token is absent, malformed, tampered with, signed with a different key, or
// expired. It never fails: an unusable token means an anonymous request, not
// an error.
func (s *TokenService) Resolve(tokenString string) string {
	if tokenString == "" {
		return ""
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secretKey, nil
	})
	if err != nil || !token.Valid {
		return ""
	}

	return claims.UserID
}
