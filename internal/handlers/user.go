package handlers

import (
	"net/http"

	"memories-backend/internal/middleware"
	"memories-backend/internal/models"
	"memories-backend/internal/services"
	"memories-backend/internal/session"
)

// UserHandler handles the signed-in user's profile and settings
type UserHandler struct {
	auth  *services.AuthService
	prefs *services.PreferenceService
	store *session.Store
}

// NewUserHandler creates a new user handler
func NewUserHandler(auth *services.AuthService, prefs *services.PreferenceService, store *session.Store) *UserHandler {
	return &UserHandler{auth: auth, prefs: prefs, store: store}
}

// MeResponse is the signed-in user with the resolved preference
type MeResponse struct {
	User       *models.User      `json:"user"`
	Preference models.Preference `json:"preference"`
	Theme      string            `json:"theme"`
}

// Me handles GET /api/v1/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.GetUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err, "Failed to get user")
		return
	}
	pref := user.Preference()
	respondJSON(w, http.StatusOK, MeResponse{User: user, Preference: pref, Theme: pref.Theme()})
}

// PreferenceResponse is a resolved preference and its theme
type PreferenceResponse struct {
	models.Preference
	Theme string `json:"theme"`
}

// GetPreferences handles GET /api/v1/me/preferences
func (h *UserHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	pref, err := h.prefs.Load(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err, "Failed to load preferences")
		return
	}
	respondJSON(w, http.StatusOK, PreferenceResponse{Preference: pref, Theme: pref.Theme()})
}

// UpdatePreferences handles PATCH /api/v1/me/preferences
func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var patch models.PreferencePatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err, "Invalid preference request")
		return
	}

	pref, err := h.prefs.Save(r.Context(), middleware.GetUserID(r.Context()), patch)
	if err != nil {
		writeError(w, r, err, "Failed to save preferences")
		return
	}
	respondJSON(w, http.StatusOK, PreferenceResponse{Preference: pref, Theme: pref.Theme()})
}

// ProfileRequest is a partial profile update
type ProfileRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// UpdateProfile handles PATCH /api/v1/me/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req ProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "Invalid profile request")
		return
	}

	user, err := h.auth.UpdateProfile(r.Context(), middleware.GetUserID(r.Context()), req.Name, req.Email)
	if err != nil {
		writeError(w, r, err, "Failed to update profile")
		return
	}
	h.store.Refresh(services.IdentityOf(user))
	respondJSON(w, http.StatusOK, user)
}

// PasswordRequest is a password change with its confirmation
type PasswordRequest struct {
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

// UpdatePassword handles PUT /api/v1/me/password
func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "Invalid password request")
		return
	}

	if err := h.auth.UpdatePassword(r.Context(), middleware.GetUserID(r.Context()), req.Password, req.Confirm); err != nil {
		writeError(w, r, err, "Failed to update password")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PushTokenRequest registers a device for push alerts
type PushTokenRequest struct {
	Token string `json:"token"`
}

// UpdatePushToken handles PUT /api/v1/me/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	var req PushTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "Invalid push token request")
		return
	}

	if err := h.prefs.SetPushToken(r.Context(), middleware.GetUserID(r.Context()), req.Token); err != nil {
		writeError(w, r, err, "Failed to update push token")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
