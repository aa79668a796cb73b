package middleware

import (
	"context"
	"net/http"
)

// SessionUser reports the logged-in user's id, or "" for anonymous visitors.
type SessionUser interface {
	UserID(ctx context.Context) string
}

// RequireAuth redirects anonymous visitors to /login. It must run inside
// the session LoadAndSave wrapper.
func RequireAuth(sessions SessionUser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sessions.UserID(r.Context()) == "" {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
