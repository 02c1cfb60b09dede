package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/telhawk-systems/hookrelay/internal/httputil"
	"github.com/telhawk-systems/hookrelay/internal/tokens"
)

// ClaimsKey is the context key for validated token claims.
const ClaimsKey = contextKey("token-claims")

// TokenValidator is the subset of tokens.Manager the middleware needs.
type TokenValidator interface {
	Validate(token string, kind tokens.Kind) (*tokens.Claims, error)
}

// RequireToken rejects requests without a valid bearer token of the given
// kind and stores the claims in the request context otherwise.
func RequireToken(validator TokenValidator, kind tokens.Kind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := httputil.BearerToken(r)
			if raw == "" {
				httputil.WriteMessage(w, http.StatusUnauthorized, "Missing Authorization Header")
				return
			}

			claims, err := validator.Validate(raw, kind)
			if err != nil {
				switch {
				case errors.Is(err, tokens.ErrExpiredToken):
					httputil.WriteMessage(w, http.StatusUnauthorized, "Token has expired")
				case errors.Is(err, tokens.ErrWrongTokenType):
					httputil.WriteMessage(w, http.StatusUnauthorized, "Only "+string(kind)+" tokens are allowed")
				default:
					httputil.WriteMessage(w, http.StatusUnauthorized, "Invalid token")
				}
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims returns the claims stored by RequireToken, or nil.
func GetClaims(ctx context.Context) *tokens.Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*tokens.Claims); ok {
		return claims
	}
	return nil
}

// GetIdentity returns the authenticated identity, or "".
func GetIdentity(ctx context.Context) string {
	if claims := GetClaims(ctx); claims != nil {
		return claims.Identity
	}
	return ""
}
