// Package middleware carries the CRUD layer's cross-cutting HTTP concerns.
// Grounded on the teacher's internal/api/middleware/auth.go bearer-token
// extraction, narrowed to the single-subject Claims C-API's JWTManager now
// issues (no user/workspace lookup — there's no multi-tenant model left to
// look up).
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/flowcraft-dev/flowcraft/internal/api/dto"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/crypto"
)

type contextKey string

const claimsKey contextKey = "claims"

// Auth validates the Authorization: Bearer <token> header and stashes the
// resulting claims on the request context.
func Auth(jwtManager *crypto.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				dto.Unauthorized(w, "missing bearer token")
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			claims, err := jwtManager.ValidateToken(token)
			if err != nil {
				dto.Unauthorized(w, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext retrieves the Claims stashed by Auth, if any.
func ClaimsFromContext(ctx context.Context) *crypto.Claims {
	claims, _ := ctx.Value(claimsKey).(*crypto.Claims)
	return claims
}
