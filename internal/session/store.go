// Package session holds the authenticated identity of each client session and
// republishes every sign-in, sign-up and sign-out to its subscribers.
package session

import (
	"context"
	"sync"
	"time"

	"memories-backend/internal/apperr"

	"github.com/rs/zerolog/log"
)

// State is the authentication state of a client session
type State int

const (
	// StateUnknown means the session could not be verified yet
	StateUnknown State = iota
	// StateAuthenticated means the session carries a valid identity
	StateAuthenticated
	// StateUnauthenticated means there is no identity
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Identity is the authenticated user as seen by the rest of the application
type Identity struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Session is an issued credential and the identity it belongs to
type Session struct {
	Token     string    `json:"token"`
	Identity  Identity  `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Snapshot is the resolved state of one client session
type Snapshot struct {
	State    State     `json:"state"`
	Identity *Identity `json:"user,omitempty"`
}

// Change is published to subscribers whenever a session changes state
type Change struct {
	State    State
	Identity Identity
	Token    string
}

// Provider is the identity backend the store delegates credential checks to
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password, name string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	Verify(ctx context.Context, token string) (*Session, error)
}

// DefaultCacheTTL is how long a verified session is trusted before Resolve
// asks the provider again
const DefaultCacheTTL = time.Minute

type cachedSession struct {
	Session
	verifiedAt time.Time
}

// Store caches verified sessions by token and fans out changes
type Store struct {
	provider Provider
	now      func() time.Time
	ttl      time.Duration

	mu       sync.RWMutex
	sessions map[string]*cachedSession
	subs     map[int]func(Change)
	nextSub  int
}

// NewStore creates a session store backed by provider
func NewStore(provider Provider) *Store {
	return &Store{
		provider: provider,
		now:      time.Now,
		ttl:      DefaultCacheTTL,
		sessions: make(map[string]*cachedSession),
		subs:     make(map[int]func(Change)),
	}
}

// SetCacheTTL changes how long verified sessions are served from the cache
func (s *Store) SetCacheTTL(ttl time.Duration) {
	s.mu.Lock()
	s.ttl = ttl
	s.mu.Unlock()
}

// Subscribe registers fn for every subsequent change and returns a function
// that removes it
func (s *Store) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) publish(change Change) {
	s.mu.RLock()
	subs := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(change)
	}
}

// remember caches sess and drops entries that are expired or due for
// verification, so the cache only holds recently verified sessions
func (s *Store) remember(sess *Session) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, c := range s.sessions {
		if !s.fresh(c, now) {
			delete(s.sessions, token)
		}
	}
	s.sessions[sess.Token] = &cachedSession{Session: *sess, verifiedAt: now}
}

func (s *Store) fresh(c *cachedSession, now time.Time) bool {
	if !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt) {
		return false
	}
	return now.Sub(c.verifiedAt) < s.ttl
}

// SignIn verifies the credential with the provider and starts a session
func (s *Store) SignIn(ctx context.Context, email, password string) (*Session, error) {
	sess, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.remember(sess)
	s.publish(Change{State: StateAuthenticated, Identity: sess.Identity, Token: sess.Token})

	log.Info().Str("user_id", sess.Identity.UserID).Msg("User signed in")
	return sess, nil
}

// SignUp creates an account with the provider and starts a session for it
func (s *Store) SignUp(ctx context.Context, email, password, name string) (*Session, error) {
	sess, err := s.provider.SignUp(ctx, email, password, name)
	if err != nil {
		return nil, err
	}
	s.remember(sess)
	s.publish(Change{State: StateAuthenticated, Identity: sess.Identity, Token: sess.Token})

	log.Info().Str("user_id", sess.Identity.UserID).Msg("User signed up")
	return sess, nil
}

// SignOut drops the session locally and notifies subscribers before asking
// the provider to revoke the token. It never fails: a provider error is only
// logged.
func (s *Store) SignOut(ctx context.Context, token string) {
	if token == "" {
		return
	}

	s.mu.Lock()
	var identity Identity
	if sess, known := s.sessions[token]; known {
		identity = sess.Identity
	}
	delete(s.sessions, token)
	s.mu.Unlock()

	s.publish(Change{State: StateUnauthenticated, Identity: identity, Token: token})

	if err := s.provider.SignOut(ctx, token); err != nil {
		log.Warn().Err(err).Msg("Failed to revoke token with provider")
	}
}

// Resolve maps a bearer token to a session snapshot. Cached sessions are
// verified with the provider again once they are older than the cache TTL.
// Credential failures resolve to unauthenticated; any other provider failure
// resolves to unknown.
func (s *Store) Resolve(ctx context.Context, token string) Snapshot {
	if token == "" {
		return Snapshot{State: StateUnauthenticated}
	}

	now := s.now()
	s.mu.RLock()
	cached, ok := s.sessions[token]
	var identity Identity
	var expiresAt time.Time
	fresh := false
	if ok {
		identity, expiresAt = cached.Identity, cached.ExpiresAt
		fresh = s.fresh(cached, now)
	}
	s.mu.RUnlock()

	if ok && fresh {
		return Snapshot{State: StateAuthenticated, Identity: &identity}
	}
	if ok && !expiresAt.IsZero() && !now.Before(expiresAt) {
		s.forget(token, identity)
		return Snapshot{State: StateUnauthenticated}
	}

	sess, err := s.provider.Verify(ctx, token)
	if err != nil {
		if _, isAuth := apperr.IsAuth(err); isAuth {
			if ok {
				s.forget(token, identity)
			}
			return Snapshot{State: StateUnauthenticated}
		}
		log.Warn().Err(err).Msg("Failed to verify session")
		return Snapshot{State: StateUnknown}
	}

	s.remember(sess)
	identity = sess.Identity
	return Snapshot{State: StateAuthenticated, Identity: &identity}
}

// forget drops a cached session that is no longer valid and tells
// subscribers it ended
func (s *Store) forget(token string, identity Identity) {
	s.mu.Lock()
	_, known := s.sessions[token]
	delete(s.sessions, token)
	s.mu.Unlock()

	if known {
		s.publish(Change{State: StateUnauthenticated, Identity: identity, Token: token})
	}
}

// Refresh replaces the cached identity of every session of the user and
// republishes it
func (s *Store) Refresh(identity Identity) {
	s.mu.Lock()
	for _, sess := range s.sessions {
		if sess.Identity.UserID == identity.UserID {
			sess.Identity = identity
		}
	}
	s.mu.Unlock()

	s.publish(Change{State: StateAuthenticated, Identity: identity})
}
