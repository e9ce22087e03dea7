package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"memories-backend/internal/session"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocket frame types
const (
	WSAuthState         = "auth_state"
	WSCollectionChanged = "collection_changed"
	WSView              = "view"
	WSLoadMore          = "load_more"
	WSError             = "error"
)

const writeWait = 10 * time.Second

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type       string      `json:"type"`
	Timestamp  int64       `json:"timestamp,omitempty"`
	Collection string      `json:"collection,omitempty"`
	Action     string      `json:"action,omitempty"`
	ID         string      `json:"id,omitempty"`
	State      string      `json:"state,omitempty"`
	Category   string      `json:"category,omitempty"`
	Code       string      `json:"code,omitempty"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

// Client is one WebSocket connection of a signed-in user
type Client struct {
	UserID string
	Token  string

	conn *websocket.Conn
	mu   sync.Mutex
}

// NewClient wraps an upgraded connection
func NewClient(conn *websocket.Conn, userID, token string) *Client {
	return &Client{UserID: userID, Token: token, conn: conn}
}

// Send writes one frame; writes on a connection are serialised
func (c *Client) Send(message WSMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// WSHub manages WebSocket connections
type WSHub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{clients: make(map[*Client]struct{})}
}

// Register registers a new WebSocket connection
func (h *WSHub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	log.Info().Str("user_id", c.UserID).Msg("WebSocket connection registered")
}

// Unregister removes and closes a WebSocket connection
func (h *WSHub) Unregister(c *Client) {
	h.mu.Lock()
	_, exists := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if exists {
		c.conn.Close()
		log.Info().Str("user_id", c.UserID).Msg("WebSocket connection unregistered")
	}
}

func (h *WSHub) snapshot(match func(*Client) bool) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if match == nil || match(c) {
			clients = append(clients, c)
		}
	}
	return clients
}

func (h *WSHub) sendAll(clients []*Client, message WSMessage) int {
	sent := 0
	for _, c := range clients {
		if err := c.Send(message); err != nil {
			log.Error().Err(err).Str("user_id", c.UserID).Msg("Failed to send WebSocket message")
			h.Unregister(c)
			continue
		}
		sent++
	}
	return sent
}

// SendToUser sends a message to every connection of a user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	clients := h.snapshot(func(c *Client) bool { return c.UserID == userID })
	if len(clients) == 0 {
		return fmt.Errorf("user %s is not connected", userID)
	}
	if h.sendAll(clients, message) == 0 {
		return fmt.Errorf("failed to send message to user %s", userID)
	}
	return nil
}

// Broadcast sends a message to every connection
func (h *WSHub) Broadcast(message WSMessage) {
	h.sendAll(h.snapshot(nil), message)
}

// IsOnline checks if a user has at least one connection
func (h *WSHub) IsOnline(userID string) bool {
	return len(h.snapshot(func(c *Client) bool { return c.UserID == userID })) > 0
}

// PublishChange tells every client that a collection changed so it re-fetches
func (h *WSHub) PublishChange(collection, action, id string) {
	h.Broadcast(WSMessage{
		Type:       WSCollectionChanged,
		Timestamp:  time.Now().UnixMilli(),
		Collection: collection,
		Action:     action,
		ID:         id,
	})
}

// HandleSessionChange forwards a session change to the affected connections.
// A change for a token reaches the connections opened with it; a change
// without a token reaches every connection of the user. Connections of a
// signed-out token are closed after the frame is sent.
func (h *WSHub) HandleSessionChange(change session.Change) {
	message := WSMessage{
		Type:      WSAuthState,
		Timestamp: time.Now().UnixMilli(),
		State:     change.State.String(),
	}
	if change.State == session.StateAuthenticated {
		identity := change.Identity
		message.Data = &identity
	}

	var clients []*Client
	if change.Token != "" {
		clients = h.snapshot(func(c *Client) bool { return c.Token == change.Token })
	} else {
		clients = h.snapshot(func(c *Client) bool { return c.UserID == change.Identity.UserID })
	}
	h.sendAll(clients, message)

	if change.State == session.StateUnauthenticated {
		for _, c := range clients {
			h.Unregister(c)
		}
	}
}

// Close closes every connection
func (h *WSHub) Close() {
	for _, c := range h.snapshot(nil) {
		h.Unregister(c)
	}
}
