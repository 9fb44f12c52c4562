package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/triforge/triforge-api/internal/auth"
	"github.com/triforge/triforge-api/internal/service"
)

// AuthHandler manages sign-in and the session cookie.
//
// HANDLER RESPONSIBILITIES:
//   - HandleLogin    → check credentials, return the JWT and set it as a cookie
//   - HandleLogout   → clear the JWT cookie
//   - HandleMe       → return the currently signed-in user
//   - HandleRegister → create another admin account (gated)
type AuthHandler struct {
	auth         *service.AuthService
	tokenTTL     time.Duration
	secureCookie bool
	responder
}

// NewAuthHandler creates an AuthHandler. secureCookie should be true
// whenever the API is served over HTTPS.
func NewAuthHandler(svc *service.AuthService, tokenTTL time.Duration, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:         svc,
		tokenTTL:     tokenTTL,
		secureCookie: secureCookie,
		responder:    newResponder(logger),
	}
}

// TokenResponse is returned by login and register. Clients that cannot use
// cookies send Token back as "Authorization: Bearer <token>".
type TokenResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int64        `json:"expiresIn"` // seconds
	User      UserResponse `json:"user"`
}

// HandleLogin verifies email and password.
//
// HTTP: POST /api/auth/login
// REQUEST BODY: {"email": "admin@triforge.io", "password": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.auth.Login(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.setTokenCookie(w, res.Token)
	h.writeJSON(w, r, http.StatusOK, h.tokenResponse(res))
}

// HandleRegister creates an admin account and signs it in.
//
// HTTP: POST /api/auth/register
// Auth: Required
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in service.CreateUserInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.auth.Register(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		h.logger.Info("admin registered a new account",
			slog.Int64("by", id.ID),
			slog.Int64("userID", res.User.ID),
		)
	}
	h.writeJSON(w, r, http.StatusCreated, h.tokenResponse(res))
}

// HandleLogout clears the JWT cookie.
//
// HTTP: POST /api/auth/logout
//
// Tokens are stateless, so a copied token stays valid until it expires;
// logout only removes the browser's copy.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // tells the browser to delete the cookie immediately
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	h.writeJSON(w, r, http.StatusOK, MessageResponse{Message: "logged out"})
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /api/auth/me
// Auth: Required (RequireAuth puts the identity in the context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		// Only reachable if the route was mounted outside the gate.
		h.writeJSON(w, r, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	user, err := h.auth.Me(r.Context(), id.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, DataResponse{Data: toUserResponse(user)})
}

// setTokenCookie stores the JWT in an HttpOnly cookie so browser clients
// never handle it from JavaScript.
func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) tokenResponse(res *service.AuthResult) TokenResponse {
	return TokenResponse{
		Token:     res.Token,
		ExpiresIn: int64(h.tokenTTL.Seconds()),
		User:      toUserResponse(res.User),
	}
}
