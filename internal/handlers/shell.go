package handlers

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"memories-backend/internal/guard"
	"memories-backend/internal/i18n"
	"memories-backend/internal/middleware"
	"memories-backend/internal/models"
	"memories-backend/internal/session"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// retryAfterSeconds is how long clients wait before retrying an unresolved session
const retryAfterSeconds = 1

// PagePaths are the client views served by the shell
var PagePaths = []string{"/", "/login", "/signup", "/dashboard", "/gallery", "/map", "/timeline", "/messages", "/settings"}

var navEntries = []struct {
	Path string
	Key  string
}{
	{"/dashboard", "nav/home"},
	{"/gallery", "nav/gallery"},
	{"/map", "nav/map"},
	{"/messages", "nav/messages"},
	{"/timeline", "nav/timeline"},
	{"/settings", "nav/settings"},
}

// NavItem is one entry of the navigation bar
type NavItem struct {
	Path   string `json:"path"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// NavItems returns the localized navigation bar with current marked active
func NavItems(tag language.Tag, current string) []NavItem {
	items := make([]NavItem, len(navEntries))
	for i, e := range navEntries {
		items[i] = NavItem{Path: e.Path, Label: i18n.Message(tag, e.Key), Active: e.Path == current}
	}
	return items
}

type preferenceLoader interface {
	Load(ctx context.Context, userID string) (models.Preference, error)
}

// ShellHandler runs the route guard for page requests and renders the shell
type ShellHandler struct {
	resolver middleware.Resolver
	prefs    preferenceLoader
	cookies  sessions.Store
	policy   guard.Policy
}

// NewShellHandler creates a new shell handler
func NewShellHandler(resolver middleware.Resolver, prefs preferenceLoader, cookies sessions.Store, policy guard.Policy) *ShellHandler {
	return &ShellHandler{resolver: resolver, prefs: prefs, cookies: cookies, policy: policy}
}

type shellPage struct {
	Lang       string
	Title      string
	Theme      string
	Path       string
	Nav        []NavItem
	User       *session.Identity
	SignOut    string
	Loading    string
	RetryAfter int
}

func (h *ShellHandler) resolve(r *http.Request) session.Snapshot {
	return h.resolver.Resolve(r.Context(), middleware.TokenFromRequest(r, h.cookies))
}

// Page serves every client view: it redirects, waits or renders the shell
// depending on the guard decision for the session cookie
func (h *ShellHandler) Page(w http.ResponseWriter, r *http.Request) {
	snap := h.resolve(r)
	decision := h.policy.Allow(snap.State, r.URL.Path)

	tag := i18n.FromRequest(r)
	page := shellPage{
		Lang:       tag.String(),
		Title:      i18n.Message(tag, "app/title"),
		Theme:      models.DefaultPreference.Theme(),
		Path:       r.URL.Path,
		SignOut:    i18n.Message(tag, "nav/signout"),
		Loading:    i18n.Message(tag, "app/loading"),
		RetryAfter: retryAfterSeconds,
	}

	switch decision.Action {
	case guard.ActionRedirect:
		http.Redirect(w, r, decision.Location, http.StatusSeeOther)
		return
	case guard.ActionWait:
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		h.render(w, "loading.html", http.StatusServiceUnavailable, page)
		return
	}

	if snap.State == session.StateAuthenticated {
		page.User = snap.Identity
		page.Nav = NavItems(tag, r.URL.Path)
		pref, err := h.prefs.Load(r.Context(), snap.Identity.UserID)
		if err != nil {
			log.Warn().Err(err).Str("user_id", snap.Identity.UserID).Msg("Failed to load preferences, using defaults")
		}
		page.Theme = pref.Theme()
	}
	h.render(w, "index.html", http.StatusOK, page)
}

func (h *ShellHandler) render(w http.ResponseWriter, name string, statusCode int, page shellPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := pageTemplates.ExecuteTemplate(w, name, page); err != nil {
		log.Error().Err(err).Str("template", name).Msg("Failed to render page")
	}
}

// RouteResponse is the guard decision for a client-side navigation
type RouteResponse struct {
	State    session.State  `json:"state"`
	Decision guard.Decision `json:"decision"`
}

// Route handles GET /api/v1/route?path=
func (h *ShellHandler) Route(w http.ResponseWriter, r *http.Request) {
	snap := h.resolve(r)
	decision := h.policy.Allow(snap.State, r.URL.Query().Get("path"))
	if decision.Action == guard.ActionWait {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	respondJSON(w, http.StatusOK, RouteResponse{State: snap.State, Decision: decision})
}

// Nav handles GET /api/v1/nav?path=
func (h *ShellHandler) Nav(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, NavItems(i18n.FromRequest(r), r.URL.Query().Get("path")))
}
