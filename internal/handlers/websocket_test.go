package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"memories-backend/internal/services"
	"memories-backend/internal/session"

	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T, h *WebSocketHandler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"?token=t1", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) services.WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg services.WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return msg
}

func writeWS(t *testing.T, conn *websocket.Conn, msg services.WSMessage) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
}

func signedInResolver() fixedResolver {
	return fixedResolver(session.Snapshot{
		State:    session.StateAuthenticated,
		Identity: &session.Identity{UserID: "u1", DisplayName: "Jin"},
	})
}

func TestWebSocketRejectsSignedOut(t *testing.T) {
	h := NewWebSocketHandler(services.NewWSHub(), fixedResolver(session.Snapshot{State: session.StateUnauthenticated}), nil, nil)
	rec := httptest.NewRecorder()
	h.HandleWebSocket(rec, httptest.NewRequest("GET", "/ws", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	h = NewWebSocketHandler(services.NewWSHub(), fixedResolver(session.Snapshot{State: session.StateUnknown}), nil, nil)
	rec = httptest.NewRecorder()
	h.HandleWebSocket(rec, httptest.NewRequest("GET", "/ws?token=t1", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestWebSocketViewAndLoadMore(t *testing.T) {
	release := make(chan struct{})
	views := map[string]ViewFunc{
		services.CollectionMessages: func(ctx context.Context, category string, page int) (interface{}, error) {
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return map[string]interface{}{"category": category, "page": page}, nil
		},
	}
	hub := services.NewWSHub()
	defer hub.Close()
	conn := dialWS(t, NewWebSocketHandler(hub, signedInResolver(), nil, views))

	msg := readWS(t, conn)
	if msg.Type != services.WSAuthState || msg.State != "authenticated" {
		t.Fatalf("first frame = %+v, want auth_state", msg)
	}

	writeWS(t, conn, services.WSMessage{Type: services.WSLoadMore})
	if msg := readWS(t, conn); msg.Type != services.WSError || msg.Code != "no-view" {
		t.Fatalf("load_more without view = %+v, want no-view error", msg)
	}

	writeWS(t, conn, services.WSMessage{Type: services.WSView, Collection: services.CollectionMessages, Category: "love"})
	writeWS(t, conn, services.WSMessage{Type: services.WSLoadMore})
	if msg := readWS(t, conn); msg.Type != services.WSError || msg.Code != "fetch-in-progress" {
		t.Fatalf("load_more while fetching = %+v, want fetch-in-progress error", msg)
	}

	close(release)
	msg = readWS(t, conn)
	if msg.Type != services.WSView || msg.Collection != services.CollectionMessages || msg.Category != "love" {
		t.Fatalf("view frame = %+v", msg)
	}
	if data, _ := msg.Data.(map[string]interface{}); data["page"] != float64(1) {
		t.Errorf("first view page = %v, want 1", msg.Data)
	}

	// Wait for the fetch to be marked complete before asking for more.
	deadline := time.Now().Add(2 * time.Second)
	var more services.WSMessage
	for {
		writeWS(t, conn, services.WSMessage{Type: services.WSLoadMore})
		more = readWS(t, conn)
		if more.Type == services.WSView || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if data, _ := more.Data.(map[string]interface{}); more.Type != services.WSView || data["page"] != float64(2) {
		t.Errorf("load_more frame = %+v, want page 2", more)
	}
}

func TestWebSocketUnknownFrames(t *testing.T) {
	hub := services.NewWSHub()
	defer hub.Close()
	conn := dialWS(t, NewWebSocketHandler(hub, signedInResolver(), nil, map[string]ViewFunc{}))
	readWS(t, conn)

	writeWS(t, conn, services.WSMessage{Type: "bogus"})
	if msg := readWS(t, conn); msg.Type != services.WSError || msg.Code != "unknown-message-type" {
		t.Errorf("bogus frame reply = %+v", msg)
	}

	writeWS(t, conn, services.WSMessage{Type: services.WSView, Collection: "nope"})
	if msg := readWS(t, conn); msg.Type != services.WSError || msg.Code != "unknown-collection" {
		t.Errorf("unknown collection reply = %+v", msg)
	}
}

func TestWebSocketRefreshDuringFetch(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	views := map[string]ViewFunc{
		services.CollectionPhotos: func(ctx context.Context, category string, page int) (interface{}, error) {
			n := calls.Add(1)
			if n == 1 {
				select {
				case <-release:
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			return map[string]interface{}{"call": n, "page": page}, nil
		},
	}
	hub := services.NewWSHub()
	defer hub.Close()
	conn := dialWS(t, NewWebSocketHandler(hub, signedInResolver(), nil, views))
	readWS(t, conn)

	view := services.WSMessage{Type: services.WSView, Collection: services.CollectionPhotos, Category: "travel"}
	writeWS(t, conn, view)
	writeWS(t, conn, view)

	// the second request arrives while the first fetch is blocked
	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)

	for want := float64(1); want <= 2; want++ {
		msg := readWS(t, conn)
		data, _ := msg.Data.(map[string]interface{})
		if msg.Type != services.WSView || data["call"] != want || data["page"] != float64(1) {
			t.Fatalf("frame = %+v, want view from call %v on page 1", msg, want)
		}
	}
}
