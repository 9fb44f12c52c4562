package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/triforge/triforge-api/internal/model"
)

// CookieName is the HttpOnly cookie that carries the JWT for browser clients.
const CookieName = "token"

// ErrNoCredential means the request carried neither a bearer token nor the
// token cookie.
var ErrNoCredential = errors.New("auth: no credential")

// contextKey is unexported so no other package can read or shadow the
// identity stored in a request context.
type contextKey string

const identityKey contextKey = "identity"

// Verifier turns a raw token into the identity of an existing user.
// The service layer implements it so a deleted account stops passing the
// gate even while its token is unexpired.
type Verifier interface {
	Verify(ctx context.Context, token string) (model.Identity, error)
}

// RequireAuth enforces authentication on protected routes.
//
// The credential is read from "Authorization: Bearer <jwt>" first and the
// "token" cookie second. On any failure the middleware answers 401 itself
// and never calls next, so a rejected request has no side effects.
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := TokenFromRequest(r)
			if err != nil {
				unauthorized(w, "authentication required")
				return
			}

			id, err := v.Verify(r.Context(), token)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id model.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity attached by RequireAuth.
// ok is false on routes outside the gate.
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityKey).(model.Identity)
	return id, ok && id.ID > 0
}

// TokenFromRequest extracts the raw JWT from the Authorization header or
// the token cookie.
func TokenFromRequest(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", ErrNoCredential
		}
		return strings.TrimSpace(token), nil
	}

	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrNoCredential
	}
	return cookie.Value, nil
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="triforge"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": msg,
	})
}
