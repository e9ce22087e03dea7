package handlers

import (
	"net/http"
	"time"

	"memories-backend/internal/guard"
	"memories-backend/internal/middleware"
	"memories-backend/internal/session"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles sign-up, sign-in and sign-out
type AuthHandler struct {
	store   *session.Store
	cookies sessions.Store
	policy  guard.Policy
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(store *session.Store, cookies sessions.Store, policy guard.Policy) *AuthHandler {
	return &AuthHandler{store: store, cookies: cookies, policy: policy}
}

// CredentialsRequest is the body of sign-up and sign-in
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// SessionResponse is returned after a successful sign-up or sign-in
type SessionResponse struct {
	Token     string           `json:"token"`
	User      session.Identity `json:"user"`
	ExpiresAt time.Time        `json:"expires_at"`
	Redirect  string           `json:"redirect"`
}

func (h *AuthHandler) started(w http.ResponseWriter, r *http.Request, sess *session.Session, from string, statusCode int) {
	if err := middleware.SaveToken(w, r, h.cookies, sess.Token); err != nil {
		log.Error().Err(err).Msg("Failed to save session cookie")
	}
	decision := h.policy.Allow(session.StateAuthenticated, from)
	respondJSON(w, statusCode, SessionResponse{
		Token:     sess.Token,
		User:      sess.Identity,
		ExpiresAt: sess.ExpiresAt,
		Redirect:  decision.Location,
	})
}

// SignUp handles POST /api/v1/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "Invalid sign-up request")
		return
	}

	sess, err := h.store.SignUp(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, r, err, "Failed to sign up")
		return
	}
	h.started(w, r, sess, h.policy.SignUp, http.StatusCreated)
}

// SignIn handles POST /api/v1/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "Invalid sign-in request")
		return
	}

	sess, err := h.store.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err, "Failed to sign in")
		return
	}
	h.started(w, r, sess, h.policy.SignIn, http.StatusOK)
}

// SignOut handles POST /api/v1/auth/signout. It always succeeds.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.store.SignOut(r.Context(), middleware.GetToken(r.Context()))
	if err := middleware.ClearToken(w, r, h.cookies); err != nil {
		log.Error().Err(err).Msg("Failed to clear session cookie")
	}
	w.WriteHeader(http.StatusNoContent)
}

// SignOutPage handles POST /signout from the navigation bar
func (h *AuthHandler) SignOutPage(w http.ResponseWriter, r *http.Request) {
	h.store.SignOut(r.Context(), middleware.TokenFromRequest(r, h.cookies))
	if err := middleware.ClearToken(w, r, h.cookies); err != nil {
		log.Error().Err(err).Msg("Failed to clear session cookie")
	}
	http.Redirect(w, r, h.policy.SignIn, http.StatusSeeOther)
}
