// Package middleware provides HTTP middleware for the pipeline API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/lecternhq/lectern/internal/logger"
	"github.com/lecternhq/lectern/pkg/storage"
)

// HeaderUserEmail is the request header carrying the caller identity.
const HeaderUserEmail = "X-User-Email"

type contextKey string

const userEmailKey contextKey = "user_email"

// Identity resolves the caller identity from the X-User-Email header and
// places it on the request context. Requests without the header run as the
// anonymous user; identity is a namespace selector here, not a credential,
// so there is nothing to verify.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimSpace(r.Header.Get(HeaderUserEmail))
		if email == "" {
			email = storage.AnonymousEmail
		}
		ctx := context.WithValue(r.Context(), userEmailKey, email)
		if lc := logger.FromContext(ctx); lc != nil {
			ctx = logger.WithContext(ctx, lc.WithUser(storage.UserHash(email)))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserEmail returns the identity placed on the context by Identity. It
// falls back to the anonymous user for handlers reachable outside the
// Identity chain.
func UserEmail(ctx context.Context) string {
	if email, ok := ctx.Value(userEmailKey).(string); ok && email != "" {
		return email
	}
	return storage.AnonymousEmail
}
