package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"memories-backend/internal/i18n"
	"memories-backend/internal/session"

	"github.com/gorilla/sessions"
)

type contextKey string

const (
	identityKey contextKey = "identity"
	tokenKey    contextKey = "token"
)

// CookieName is the name of the browser session cookie
const CookieName = "memories_session"

const cookieTokenField = "token"

// Resolver resolves a bearer token to a session state
type Resolver interface {
	Resolve(ctx context.Context, token string) session.Snapshot
}

// TokenFromRequest returns the bearer token of the Authorization header or,
// failing that, the token stored in the session cookie
func TokenFromRequest(r *http.Request, cookies sessions.Store) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookies == nil {
		return ""
	}
	sess, err := cookies.Get(r, CookieName)
	if err != nil {
		return ""
	}
	token, _ := sess.Values[cookieTokenField].(string)
	return token
}

// SaveToken stores token in the session cookie
func SaveToken(w http.ResponseWriter, r *http.Request, cookies sessions.Store, token string) error {
	sess, _ := cookies.Get(r, CookieName)
	sess.Values[cookieTokenField] = token
	return sess.Save(r, w)
}

// ClearToken expires the session cookie
func ClearToken(w http.ResponseWriter, r *http.Request, cookies sessions.Store) error {
	sess, _ := cookies.Get(r, CookieName)
	delete(sess.Values, cookieTokenField)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

// AuthMiddleware resolves the request's session. Signed-in requests carry the
// identity in their context; an unknown state is answered with 503 so the
// client retries instead of being sent to sign-in.
func AuthMiddleware(resolver Resolver, cookies sessions.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r, cookies)
			snap := resolver.Resolve(r.Context(), token)

			switch snap.State {
			case session.StateAuthenticated:
				next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), *snap.Identity, token)))
			case session.StateUnknown:
				w.Header().Set("Retry-After", "1")
				respondError(w, r, "session-unknown", "", http.StatusServiceUnavailable)
			default:
				respondError(w, r, "auth/session-expired", "session-expired", http.StatusUnauthorized)
			}
		})
	}
}

// WithSession returns a context carrying identity and token
func WithSession(ctx context.Context, identity session.Identity, token string) context.Context {
	ctx = context.WithValue(ctx, identityKey, identity)
	return context.WithValue(ctx, tokenKey, token)
}

// GetIdentity extracts the signed-in identity from context
func GetIdentity(ctx context.Context) (session.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(session.Identity)
	return identity, ok
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	identity, ok := GetIdentity(ctx)
	if !ok {
		return ""
	}
	return identity.UserID
}

// GetToken extracts the session token from context
func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// respondError sends a localized error response
func respondError(w http.ResponseWriter, r *http.Request, key, code string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": i18n.Message(i18n.FromRequest(r), key),
		"code":  code,
	})
}
