// Package guard decides whether a requested view may render for a session.
package guard

import (
	"path"
	"slices"

	"memories-backend/internal/session"
)

// Action is what the shell should do with a request
type Action int

const (
	// ActionRender renders the requested view
	ActionRender Action = iota
	// ActionRedirect sends the client to Decision.Location
	ActionRedirect
	// ActionWait shows a neutral loading state until the session is known
	ActionWait
)

func (a Action) String() string {
	switch a {
	case ActionRedirect:
		return "redirect"
	case ActionWait:
		return "wait"
	default:
		return "render"
	}
}

// MarshalText implements encoding.TextMarshaler
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// Decision is the outcome of Policy.Allow
type Decision struct {
	Action   Action `json:"action"`
	Location string `json:"location,omitempty"`
}

// Policy names the sign-in, sign-up and home paths and the public views
type Policy struct {
	SignIn string
	SignUp string
	Home   string
	Public []string
}

// DefaultPolicy matches the application's routes
func DefaultPolicy() Policy {
	return Policy{
		SignIn: "/login",
		SignUp: "/signup",
		Home:   "/dashboard",
		Public: []string{"/"},
	}
}

// Allow decides what to do with a request for requestedPath in the given session state
func (p Policy) Allow(state session.State, requestedPath string) Decision {
	requested := clean(requestedPath)

	switch state {
	case session.StateAuthenticated:
		if requested == p.SignIn || requested == p.SignUp {
			return Decision{Action: ActionRedirect, Location: p.Home}
		}
		return Decision{Action: ActionRender}
	case session.StateUnauthenticated:
		if p.isPublic(requested) {
			return Decision{Action: ActionRender}
		}
		return Decision{Action: ActionRedirect, Location: p.SignIn}
	default:
		return Decision{Action: ActionWait}
	}
}

func (p Policy) isPublic(requested string) bool {
	return requested == p.SignIn || requested == p.SignUp || slices.Contains(p.Public, requested)
}

func clean(requested string) string {
	if requested == "" {
		return "/"
	}
	if requested[0] != '/' {
		requested = "/" + requested
	}
	return path.Clean(requested)
}
