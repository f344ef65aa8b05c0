package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/WooyoungKwon/youtube-premium-sub001/shared/utils"
	"github.com/golang-jwt/jwt/v5"
)

// TokenParser validates an admin bearer token
type TokenParser interface {
	ParseToken(token string) (*jwt.RegisteredClaims, error)
}

type contextKey string

const adminClaimsKey contextKey = "adminClaims"

// RequireAdmin rejects requests without a valid admin bearer token
func RequireAdmin(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				utils.RespondWithError(w, http.StatusUnauthorized, "Authorization header with Bearer token is required")
				return
			}

			claims, err := parser.ParseToken(token)
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired admin token")
				return
			}

			ctx := context.WithValue(r.Context(), adminClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminClaimsFromContext returns the claims stored by RequireAdmin
func AdminClaimsFromContext(ctx context.Context) (*jwt.RegisteredClaims, bool) {
	claims, ok := ctx.Value(adminClaimsKey).(*jwt.RegisteredClaims)
	return claims, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
