package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// JWTCfg configures the HS256 bearer-token check guarding mutating
// endpoints. A blank Secret disables auth entirely (local/dev use).
type JWTCfg struct {
	Secret string
}

type contextKey string

const subjectKey contextKey = "subject"

// RequireJWT rejects requests without a valid "Authorization: Bearer <jwt>"
// header signed with cfg.Secret (HS256), and stashes the token's "sub"
// claim in the request context.
func RequireJWT(cfg JWTCfg) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if raw == r.Header.Get("Authorization") || raw == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			claims := jwt.MapClaims{}
			_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(cfg.Secret), nil
			})
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			sub, _ := claims["sub"].(string)
			r = r.WithContext(context.WithValue(r.Context(), subjectKey, sub))
			next.ServeHTTP(w, r)
		})
	}
}

// Subject returns the authenticated caller's JWT subject, or "" if the
// request was not authenticated.
func Subject(ctx context.Context) string {
	sub, _ := ctx.Value(subjectKey).(string)
	return sub
}
