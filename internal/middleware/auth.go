package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/scrob-fm/scrob/internal/auth"
	"github.com/scrob-fm/scrob/internal/metrics"
	"github.com/scrob-fm/scrob/internal/models"
)

type ctxKey int

const userKey ctxKey = iota

// Authenticate resolves the Authorization header once per request and
// stores the resulting user (possibly none) in the context. It never
// rejects by itself; RequireUser/RequireAdmin decide that per route, so
// public routes can still see who is asking.
func Authenticate(resolver *auth.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := resolver.ResolveHeader(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				slog.Error("resolve bearer token", "error", err)
				writeAuthError(w, "internal server error", http.StatusInternalServerError)
				return
			}

			switch identity.Outcome {
			case auth.Authenticated:
				metrics.RecordTokenResolution("authenticated")
			case auth.InvalidCredential:
				metrics.RecordTokenResolution("invalid")
			default:
				metrics.RecordTokenResolution("none")
			}

			if identity.User != nil {
				r = r.WithContext(WithUser(r.Context(), identity.User))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser returns a context carrying the resolved user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFrom returns the authenticated user stored by Authenticate.
func UserFrom(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok
}

// RequireUser rejects unauthenticated requests. Missing and invalid
// credentials get the identical response.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFrom(r.Context()); !ok {
			writeAuthError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects unauthenticated requests and authenticated
// non-admins.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFrom(r.Context())
		if !ok {
			writeAuthError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if decision := auth.Authorize(user, auth.AdminOnly()); !decision.Allowed {
			writeAuthError(w, "Admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeAuthError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
