package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dialbook/dialbook/internal/httputil"
	"github.com/dialbook/dialbook/internal/model"
	"github.com/dialbook/dialbook/internal/token"
)

// Middleware errors
var (
	ErrEmptyAuthHeader   = errors.New("empty auth header")
	ErrInvalidAuthHeader = errors.New("malformed auth header")
)

type claimsKey string

// ClaimsContextKey is the request context key the verified token
// claims are stored under.
var ClaimsContextKey claimsKey = "claims"

// UserID returns the authenticated user's id from the request context,
// or the empty string when the request carried no verified token.
func UserID(ctx context.Context) string {
	claims, ok := ctx.Value(ClaimsContextKey).(*token.Claims)
	if !ok {
		return ""
	}
	return claims.Subject
}

// NewMiddleware creates a middleware factory for token verification
// operations.
func NewMiddleware(tokens *token.Issuer) *Middleware {
	return &Middleware{tokens: tokens}
}

// Middleware provides methods for creating HTTP middleware.
type Middleware struct {
	tokens *token.Issuer
}

// BearerAuthenticated protects endpoints based off a user's bearer
// auth token. Verified claims are attached to the request context.
func (m *Middleware) BearerAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		claims, err := m.verifyAuthHeader(authHeader)
		if err != nil {
			log.Debug().Err(err).Msg("rejecting auth header")
			httputil.WriteError(w, model.RequestErrUnauthorized, "")
			return
		}

		// Attach claims to context
		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		r = r.WithContext(ctx)

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) verifyAuthHeader(authHeader string) (*token.Claims, error) {
	if authHeader == "" {
		return nil, ErrEmptyAuthHeader
	}

	bearer, err := ParseBearerAuthorizationHeader(authHeader)
	if err != nil {
		return nil, err
	}

	return m.tokens.Verify(bearer)
}

// ParseBearerAuthorizationHeader extracts the token from an
// Authorization header of the form "bearer <token>". The scheme is
// matched case-insensitively.
func ParseBearerAuthorizationHeader(authHeader string) (string, error) {
	fields := strings.Fields(authHeader)
	if len(fields) != 2 || !strings.EqualFold(fields[0], token.TypeBearer) {
		return "", ErrInvalidAuthHeader
	}
	return fields[1], nil
}
