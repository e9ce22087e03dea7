package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"memories-backend/internal/i18n"
	"memories-backend/internal/listing"
	"memories-backend/internal/middleware"
	"memories-backend/internal/models"
	"memories-backend/internal/services"
	"memories-backend/internal/session"

	"github.com/gorilla/sessions"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ViewFunc lists one page of a collection
type ViewFunc func(ctx context.Context, category string, page int) (interface{}, error)

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub      *services.WSHub
	resolver middleware.Resolver
	cookies  sessions.Store
	views    map[string]ViewFunc
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	resolver middleware.Resolver,
	cookies sessions.Store,
	views map[string]ViewFunc,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		resolver: resolver,
		cookies:  cookies,
		views:    views,
	}
}

// CollectionViews adapts the list operations of the services to ViewFuncs
func CollectionViews(
	gallery *services.GalleryService,
	messages *services.MessageService,
	memories *services.MemoryService,
	timeline *services.TimelineService,
) map[string]ViewFunc {
	return map[string]ViewFunc{
		services.CollectionPhotos: func(ctx context.Context, category string, page int) (interface{}, error) {
			return gallery.List(ctx, category, page)
		},
		services.CollectionMessages: func(ctx context.Context, category string, page int) (interface{}, error) {
			return messages.List(ctx, category, page)
		},
		services.CollectionMemories: func(ctx context.Context, category string, page int) (interface{}, error) {
			return memories.List(ctx, category, page)
		},
		services.CollectionEvents: func(ctx context.Context, category string, page int) (interface{}, error) {
			return timeline.List(ctx, category, page)
		},
	}
}

// viewCursor is the collection a connection is looking at and its listing
// state. refresh records a re-fetch asked for while a fetch was in flight.
type viewCursor struct {
	mu         sync.Mutex
	collection string
	refresh    bool
	state      *listing.State
}

func (c *viewCursor) current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collection
}

func (c *viewCursor) requestRefresh() {
	c.mu.Lock()
	c.refresh = true
	c.mu.Unlock()
}

// take returns the current collection and clears the pending refresh
func (c *viewCursor) take() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresh = false
	return c.collection
}

func (c *viewCursor) refreshPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refresh
}

// connection is the per-connection state of the read loop
type connection struct {
	ctx    context.Context
	client *services.Client
	tag    language.Tag
	cursor *viewCursor
	views  map[string]ViewFunc
}

// HandleWebSocket handles WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = middleware.TokenFromRequest(r, h.cookies)
	}

	snap := h.resolver.Resolve(r.Context(), token)
	switch snap.State {
	case session.StateAuthenticated:
	case session.StateUnknown:
		w.Header().Set("Retry-After", "1")
		respondError(w, ErrorResponse{
			Error: i18n.Message(i18n.FromRequest(r), "session-unknown"),
			Code:  "session-unknown",
		}, http.StatusServiceUnavailable)
		return
	default:
		respondError(w, ErrorResponse{
			Error: i18n.Message(i18n.FromRequest(r), "auth/session-expired"),
			Code:  "session-expired",
		}, http.StatusUnauthorized)
		return
	}
	userID := snap.Identity.UserID

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	client := services.NewClient(conn, userID, token)
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &connection{
		ctx:    ctx,
		client: client,
		tag:    i18n.FromRequest(r),
		cursor: &viewCursor{state: listing.NewState()},
		views:  h.views,
	}

	identity := *snap.Identity
	if err := client.Send(services.WSMessage{Type: services.WSAuthState, State: snap.State.String(), Data: &identity}); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to send auth_state")
		return
	}

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			c.sendError("", "invalid-message")
			continue
		}

		c.handleMessage(msg)
	}
}

// handleMessage processes incoming WebSocket messages
func (c *connection) handleMessage(msg services.WSMessage) {
	switch msg.Type {
	case services.WSView:
		c.handleView(msg)
	case services.WSLoadMore:
		c.handleLoadMore()
	default:
		c.sendError("", "unknown-message-type")
	}
}

// handleView selects a collection and category. Selecting the current view
// again re-fetches it without moving the cursor.
func (c *connection) handleView(msg services.WSMessage) {
	if _, ok := c.views[msg.Collection]; !ok {
		c.sendError(msg.Collection, "unknown-collection")
		return
	}

	category := msg.Category
	if category == "" {
		category = models.CategoryAll
	}

	c.cursor.mu.Lock()
	currentCategory, _ := c.cursor.state.Snapshot()
	if c.cursor.collection != msg.Collection || currentCategory != category {
		c.cursor.collection = msg.Collection
		c.cursor.state.SetCategory(category)
	}
	c.cursor.mu.Unlock()

	c.cursor.requestRefresh()
	c.fetch()
}

// handleLoadMore reveals the next page of the current view. It is refused
// while a fetch is in flight.
func (c *connection) handleLoadMore() {
	collection := c.cursor.current()
	if collection == "" {
		c.sendError("", "no-view")
		return
	}
	if !c.cursor.state.LoadMore() {
		c.sendError(collection, "fetch-in-progress")
		return
	}
	c.fetch()
}

// fetch lists the current view in the background. A change of the cursor or
// a refresh asked for while a fetch is in flight is picked up when that
// fetch completes.
func (c *connection) fetch() {
	if !c.cursor.state.BeginFetch() {
		return
	}

	go func() {
		for {
			collection := c.cursor.take()
			category, page := c.cursor.state.Snapshot()

			data, err := c.views[collection](c.ctx, category, page)
			if err != nil {
				status, resp := classify(err)
				log.Warn().Err(err).Int("status", status).Str("collection", collection).Msg("Failed to fetch view")
				c.send(services.WSMessage{
					Type:       services.WSError,
					Collection: collection,
					Code:       resp.Code,
					Message:    i18n.Message(c.tag, resp.Error),
				})
			} else {
				c.send(services.WSMessage{
					Type:       services.WSView,
					Collection: collection,
					Category:   category,
					Data:       data,
				})
			}
			c.cursor.state.EndFetch()

			nextCategory, nextPage := c.cursor.state.Snapshot()
			if c.cursor.current() == collection && nextCategory == category && nextPage == page && !c.cursor.refreshPending() {
				return
			}
			if c.ctx.Err() != nil || !c.cursor.state.BeginFetch() {
				return
			}
		}
	}()
}

func (c *connection) send(msg services.WSMessage) {
	if err := c.client.Send(msg); err != nil {
		log.Error().Err(err).Str("user_id", c.client.UserID).Str("type", msg.Type).Msg("Failed to send WebSocket message")
	}
}

// sendError sends a localized error frame for a protocol error code
func (c *connection) sendError(collection, code string) {
	c.send(services.WSMessage{
		Type:       services.WSError,
		Collection: collection,
		Code:       code,
		Message:    i18n.Message(c.tag, "ws/"+code),
	})
}
