package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"memories-backend/internal/apperr"
	"memories-backend/internal/config"
	"memories-backend/internal/guard"
	"memories-backend/internal/memstore"
	"memories-backend/internal/middleware"
	"memories-backend/internal/models"
	"memories-backend/internal/notify"
	"memories-backend/internal/services"
	"memories-backend/internal/session"
	"memories-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/sessions"
	"golang.org/x/text/language"
)

var errBoom = errors.New("boom")

type testServer struct {
	router   http.Handler
	store    *session.Store
	messages *memstore.Messages
	photos   *memstore.Photos
	blobs    *storage.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	users := memstore.NewUsers()
	messages := memstore.NewMessages()
	photos := memstore.NewPhotos()
	blobs := storage.NewMemoryStore("/blobs")

	authService := services.NewAuthService(users, memstore.NewTokens(), config.JWTConfig{Secret: "test-secret", ExpiryDays: 30})
	prefService := services.NewPreferenceService(users)
	gallery := services.NewGalleryService(photos, blobs, nil, 12)
	messageService := services.NewMessageService(messages, users, blobs, notify.Nop{}, nil, 10)

	store := session.NewStore(authService)
	cookies := sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))
	policy := guard.DefaultPolicy()

	authHandler := NewAuthHandler(store, cookies, policy)
	userHandler := NewUserHandler(authService, prefService, store)
	photoHandler := NewPhotoHandler(gallery, 1<<20)
	messageHandler := NewMessageHandler(messageService, 1<<20)
	shellHandler := NewShellHandler(store, prefService, cookies, policy)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", authHandler.SignUp)
		r.Post("/auth/signin", authHandler.SignIn)
		r.Get("/route", shellHandler.Route)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(store, cookies))
			r.Post("/auth/signout", authHandler.SignOut)
			r.Get("/me", userHandler.Me)
			r.Get("/photos", photoHandler.GetPhotos)
			r.Post("/photos", photoHandler.UploadPhotos)
			r.Delete("/messages/{id}", messageHandler.DeleteMessage)
		})
	})
	for _, p := range PagePaths {
		r.Get(p, shellHandler.Page)
	}

	return &testServer{router: r, store: store, messages: messages, photos: photos, blobs: blobs}
}

func (s *testServer) do(t *testing.T, method, target, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) signUp(t *testing.T, email string) SessionResponse {
	t.Helper()
	rec := s.do(t, "POST", "/api/v1/auth/signup", "", CredentialsRequest{Email: email, Password: "secret1", Name: "Jin"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode session: %v", err)
	}
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestSignUpSignInSignOut(t *testing.T) {
	s := newTestServer(t)

	signedUp := s.signUp(t, "jin@example.com")
	if signedUp.Token == "" {
		t.Fatal("signup returned an empty token")
	}
	if signedUp.Redirect != "/dashboard" {
		t.Errorf("signup redirect = %q, want /dashboard", signedUp.Redirect)
	}
	if signedUp.User.Email != "jin@example.com" || signedUp.User.DisplayName != "Jin" {
		t.Errorf("signup user = %+v", signedUp.User)
	}

	rec := s.do(t, "POST", "/api/v1/auth/signin", "", CredentialsRequest{Email: "jin@example.com", Password: "secret1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("signin status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var signedIn SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &signedIn); err != nil {
		t.Fatalf("failed to decode session: %v", err)
	}
	if signedIn.Redirect != "/dashboard" {
		t.Errorf("signin redirect = %q, want /dashboard", signedIn.Redirect)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("signin did not set the session cookie")
	}

	if rec := s.do(t, "GET", "/api/v1/me", signedIn.Token, nil); rec.Code != http.StatusOK {
		t.Fatalf("me status = %d, body = %s", rec.Code, rec.Body.String())
	}

	if rec := s.do(t, "POST", "/api/v1/auth/signout", signedIn.Token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("signout status = %d", rec.Code)
	}

	rec = s.do(t, "GET", "/api/v1/me", signedIn.Token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after signout status = %d, want 401", rec.Code)
	}
	if got := decodeError(t, rec).Code; got != "session-expired" {
		t.Errorf("me after signout code = %q, want session-expired", got)
	}

	// The sign-up token was not revoked.
	if rec := s.do(t, "GET", "/api/v1/me", signedUp.Token, nil); rec.Code != http.StatusOK {
		t.Errorf("me with other token status = %d, want 200", rec.Code)
	}
}

func TestSignInErrors(t *testing.T) {
	s := newTestServer(t)
	s.signUp(t, "jin@example.com")

	tests := []struct {
		name   string
		req    CredentialsRequest
		status int
		code   string
	}{
		{"wrong password", CredentialsRequest{Email: "jin@example.com", Password: "wrong12"}, http.StatusUnauthorized, "invalid-credential"},
		{"unknown email", CredentialsRequest{Email: "nobody@example.com", Password: "secret1"}, http.StatusUnauthorized, "invalid-credential"},
		{"malformed email", CredentialsRequest{Email: "not-an-email", Password: "secret1"}, http.StatusBadRequest, "invalid-email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, "POST", "/api/v1/auth/signin", "", tt.req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := decodeError(t, rec).Code; got != tt.code {
				t.Errorf("code = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	s.signUp(t, "jin@example.com")

	rec := s.do(t, "POST", "/api/v1/auth/signup", "", CredentialsRequest{Email: "jin@example.com", Password: "secret1"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if got := decodeError(t, rec).Code; got != "email-already-in-use" {
		t.Errorf("code = %q, want email-already-in-use", got)
	}
}

func TestProtectedRouteWithoutToken(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, "GET", "/api/v1/photos", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestDeleteMessageConfirmation(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp(t, "jin@example.com").Token

	msg := &models.Message{ID: "m1", Title: "hi", Content: "hello", Category: "love", Date: time.Now()}
	if err := s.messages.Create(context.Background(), msg); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	rec := s.do(t, "DELETE", "/api/v1/messages/m1", token, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("unconfirmed delete status = %d, want 409", rec.Code)
	}
	if got := decodeError(t, rec).Code; got != "confirmation-required" {
		t.Errorf("unconfirmed delete code = %q", got)
	}
	if _, err := s.messages.GetByID(context.Background(), "m1"); err != nil {
		t.Fatalf("message removed without confirmation: %v", err)
	}

	if rec := s.do(t, "DELETE", "/api/v1/messages/m1?confirm=true", token, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("confirmed delete status = %d, want 204", rec.Code)
	}
	if rec := s.do(t, "DELETE", "/api/v1/messages/m1?confirm=true", token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestUploadPhotos(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp(t, "jin@example.com").Token

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("category", "travel"); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"beach.jpg", "sunset.final.png"} {
		part, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte("image-bytes-" + name))
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/api/v1/photos", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var photos []models.Photo
	if err := json.Unmarshal(rec.Body.Bytes(), &photos); err != nil {
		t.Fatalf("failed to decode photos: %v", err)
	}

	titles := make([]string, len(photos))
	for i, p := range photos {
		titles[i] = p.Title
		if p.Category != "travel" {
			t.Errorf("photo %s category = %q, want travel", p.ID, p.Category)
		}
		if !strings.HasPrefix(p.URL, "/blobs/photos/") {
			t.Errorf("photo %s url = %q", p.ID, p.URL)
		}
	}
	if diff := cmp.Diff([]string{"beach", "sunset"}, titles); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}

	rec = s.do(t, "GET", "/api/v1/photos?category=travel", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var window struct {
		Items []models.Photo `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &window); err != nil {
		t.Fatalf("failed to decode window: %v", err)
	}
	if len(window.Items) != 2 {
		t.Errorf("listed %d photos, want 2", len(window.Items))
	}
}

func TestUploadPhotosRejectsUnknownCategory(t *testing.T) {
	s := newTestServer(t)
	token := s.signUp(t, "jin@example.com").Token

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("category", "bogus")
	part, _ := mw.CreateFormFile("files", "a.jpg")
	part.Write([]byte("x"))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/v1/photos", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := decodeError(t, rec).Field; got != "category" {
		t.Errorf("field = %q, want category", got)
	}
}

type fixedResolver session.Snapshot

func (f fixedResolver) Resolve(ctx context.Context, token string) session.Snapshot {
	return session.Snapshot(f)
}

type defaultPrefs struct{}

func (defaultPrefs) Load(ctx context.Context, userID string) (models.Preference, error) {
	return models.DefaultPreference, nil
}

func TestShellPage(t *testing.T) {
	identity := &session.Identity{UserID: "u1", Email: "jin@example.com", DisplayName: "Jin"}
	tests := []struct {
		name     string
		snap     session.Snapshot
		path     string
		status   int
		location string
	}{
		{"signed out protected", session.Snapshot{State: session.StateUnauthenticated}, "/gallery", http.StatusSeeOther, "/login"},
		{"signed out login", session.Snapshot{State: session.StateUnauthenticated}, "/login", http.StatusOK, ""},
		{"signed out landing", session.Snapshot{State: session.StateUnauthenticated}, "/", http.StatusOK, ""},
		{"signed in login", session.Snapshot{State: session.StateAuthenticated, Identity: identity}, "/login", http.StatusSeeOther, "/dashboard"},
		{"signed in protected", session.Snapshot{State: session.StateAuthenticated, Identity: identity}, "/gallery", http.StatusOK, ""},
		{"unknown", session.Snapshot{State: session.StateUnknown}, "/gallery", http.StatusServiceUnavailable, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewShellHandler(fixedResolver(tt.snap), defaultPrefs{}, nil, guard.DefaultPolicy())
			rec := httptest.NewRecorder()
			h.Page(rec, httptest.NewRequest("GET", tt.path, nil))

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if got := rec.Header().Get("Location"); got != tt.location {
				t.Errorf("Location = %q, want %q", got, tt.location)
			}
			if tt.snap.State == session.StateUnknown && rec.Header().Get("Retry-After") == "" {
				t.Error("missing Retry-After on wait")
			}
		})
	}
}

func TestShellPageRendersNavForSignedInUser(t *testing.T) {
	snap := session.Snapshot{State: session.StateAuthenticated, Identity: &session.Identity{UserID: "u1", DisplayName: "Jin"}}
	h := NewShellHandler(fixedResolver(snap), defaultPrefs{}, nil, guard.DefaultPolicy())

	req := httptest.NewRequest("GET", "/map", nil)
	req.Header.Set("Accept-Language", "ko-KR")
	rec := httptest.NewRecorder()
	h.Page(rec, req)

	body := rec.Body.String()
	for _, want := range []string{"추억 지도", "갤러리", "/signout"} {
		if !strings.Contains(body, want) {
			t.Errorf("page does not contain %q", want)
		}
	}
}

func TestRoute(t *testing.T) {
	h := NewShellHandler(fixedResolver(session.Snapshot{State: session.StateUnauthenticated}), defaultPrefs{}, nil, guard.DefaultPolicy())
	rec := httptest.NewRecorder()
	h.Route(rec, httptest.NewRequest("GET", "/api/v1/route?path=/settings", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	want := map[string]interface{}{
		"state":    "unauthenticated",
		"decision": map[string]interface{}{"action": "redirect", "location": "/login"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Route() mismatch (-want +got):\n%s", diff)
	}
}

func TestNavItems(t *testing.T) {
	items := NavItems(language.English, "/timeline")
	if len(items) != 6 {
		t.Fatalf("len(items) = %d, want 6", len(items))
	}
	for _, item := range items {
		if item.Active != (item.Path == "/timeline") {
			t.Errorf("item %s active = %v", item.Path, item.Active)
		}
	}
	if items[0].Label != "Home" {
		t.Errorf("first label = %q, want Home", items[0].Label)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid credential", apperr.Auth(apperr.CodeInvalidCredential, nil), http.StatusUnauthorized, "invalid-credential"},
		{"email in use", apperr.Auth(apperr.CodeEmailInUse, nil), http.StatusConflict, "email-already-in-use"},
		{"disabled", apperr.Auth(apperr.CodeUserDisabled, nil), http.StatusForbidden, "user-disabled"},
		{"validation", apperr.Required("title"), http.StatusBadRequest, "required"},
		{"confirmation", apperr.ErrConfirmationRequired, http.StatusConflict, "confirmation-required"},
		{"not found", apperr.ErrNotFound, http.StatusNotFound, "not-found"},
		{"storage", apperr.Storage("upload", "k", errBoom), http.StatusBadGateway, "storage"},
		{"external", apperr.External("kakao", errBoom), http.StatusBadGateway, "external"},
		{"data access", apperr.DataAccess("failed to list", errBoom), http.StatusInternalServerError, "data-access"},
		{"other", errBoom, http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := classify(tt.err)
			if status != tt.status || resp.Code != tt.code {
				t.Errorf("classify() = %d %q, want %d %q", status, resp.Code, tt.status, tt.code)
			}
		})
	}
}

func TestWriteErrorLocalizes(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept-Language", "ko")
	rec := httptest.NewRecorder()
	writeError(rec, req, apperr.Invalid("password", apperr.ReasonMismatch), "Invalid")

	got := decodeError(t, rec)
	want := ErrorResponse{Error: "비밀번호가 일치하지 않습니다.", Code: "mismatch", Field: "password"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("writeError() mismatch (-want +got):\n%s", diff)
	}
}
