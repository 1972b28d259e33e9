// Package token issues and verifies the bearer tokens used to
// authenticate phonebook API requests.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dialbook/dialbook/internal/model"
)

// TypeBearer identifies the token scheme carried in the
// Authorization header.
const TypeBearer = "bearer"

// ErrInvalidToken is returned when a token fails verification for
// any reason: bad signature, expired, or malformed.
var ErrInvalidToken = fmt.Errorf("invalid or expired token")

// Claims are the claims embedded in an access token.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issuer provisions and verifies signed access tokens.
type Issuer struct {
	secret    []byte
	tokenLife time.Duration
}

// NewIssuer creates a token issuer with the given signing secret and
// token lifetime.
func NewIssuer(secret string, tokenLife time.Duration) *Issuer {
	return &Issuer{
		secret:    []byte(secret),
		tokenLife: tokenLife,
	}
}

// IssueAccessToken provisions and signs a new token for the given user.
// The user id is carried as the subject.
func (i *Issuer) IssueAccessToken(user *model.User) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.tokenLife)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify parses and verifies an access token, returning its claims.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
