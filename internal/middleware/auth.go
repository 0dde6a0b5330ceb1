// Package middleware provides HTTP middlewares for authentication and
// request logging.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/atikhonov/helpdesk/internal/models"
	"github.com/atikhonov/helpdesk/internal/token"
)

type ctxKey string

const (
	userKey ctxKey = "uid"
	roleKey ctxKey = "role"
)

// SessionCookie is the cookie the browser front end stores its token in.
const SessionCookie = "session"

// WithAuth reads the session JWT from the "session" cookie or the
// Authorization Bearer header and, when valid, stores user id and role in
// the request context. Requests without a token pass through
// unauthenticated; handlers decide whether that is acceptable.
func WithAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tok string
			if c, err := r.Cookie(SessionCookie); err == nil {
				tok = c.Value
			} else if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				tok = strings.TrimPrefix(h, "Bearer ")
			}

			if tok == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := token.Parse(secret, tok)
			if err != nil {
				// Clear a broken or expired cookie so it stops being sent.
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    "",
					Path:     "/",
					HttpOnly: true,
					MaxAge:   -1,
				})
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, claims.UserID)
			ctx = context.WithValue(ctx, roleKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth blocks when no user is present in context (set by WithAuth).
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserID(r.Context()) == "" {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles allows the request only if the current role is in the list.
func RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[GetRole(r.Context())]; !ok {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID extracts the authenticated user id from the request context.
// Returns an empty string if not found.
func GetUserID(ctx context.Context) string {
	if s, ok := ctx.Value(userKey).(string); ok {
		return s
	}
	return ""
}

// GetRole extracts the authenticated role from the request context.
func GetRole(ctx context.Context) models.Role {
	if r, ok := ctx.Value(roleKey).(models.Role); ok {
		return r
	}
	return ""
}
