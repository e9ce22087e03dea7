package guard

import (
	"testing"

	"memories-backend/internal/session"
)

func TestAllow(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name  string
		state session.State
		path  string
		want  Decision
	}{
		{"anonymous protected", session.StateUnauthenticated, "/gallery", Decision{Action: ActionRedirect, Location: "/login"}},
		{"anonymous settings", session.StateUnauthenticated, "/settings", Decision{Action: ActionRedirect, Location: "/login"}},
		{"anonymous dashboard trailing slash", session.StateUnauthenticated, "/dashboard/", Decision{Action: ActionRedirect, Location: "/login"}},
		{"anonymous sign-in page", session.StateUnauthenticated, "/login", Decision{Action: ActionRender}},
		{"anonymous sign-up page", session.StateUnauthenticated, "/signup", Decision{Action: ActionRender}},
		{"anonymous home", session.StateUnauthenticated, "/", Decision{Action: ActionRender}},
		{"signed in on sign-in page", session.StateAuthenticated, "/login", Decision{Action: ActionRedirect, Location: "/dashboard"}},
		{"signed in on sign-up page", session.StateAuthenticated, "/signup", Decision{Action: ActionRedirect, Location: "/dashboard"}},
		{"signed in protected", session.StateAuthenticated, "/messages", Decision{Action: ActionRender}},
		{"signed in relative path", session.StateAuthenticated, "timeline", Decision{Action: ActionRender}},
		{"unknown protected", session.StateUnknown, "/gallery", Decision{Action: ActionWait}},
		{"unknown sign-in page", session.StateUnknown, "/login", Decision{Action: ActionWait}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.Allow(tt.state, tt.path); got != tt.want {
				t.Fatalf("Allow(%v, %q) = %+v, want %+v", tt.state, tt.path, got, tt.want)
			}
		})
	}
}

func TestActionText(t *testing.T) {
	for action, want := range map[Action]string{
		ActionRender:   "render",
		ActionRedirect: "redirect",
		ActionWait:     "wait",
	} {
		text, _ := action.MarshalText()
		if string(text) != want {
			t.Errorf("MarshalText(%d) = %q, want %q", action, text, want)
		}
	}
}
