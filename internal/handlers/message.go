package handlers

import (
	"net/http"

	"memories-backend/internal/middleware"
	"memories-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// MessageHandler handles message-related HTTP requests
type MessageHandler struct {
	messages *services.MessageService
	maxBytes int64
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messages *services.MessageService, maxBytes int64) *MessageHandler {
	return &MessageHandler{messages: messages, maxBytes: maxBytes}
}

// GetMessages handles GET /api/v1/messages
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	category, page := listParams(r)
	window, err := h.messages.List(r.Context(), category, page)
	if err != nil {
		writeError(w, r, err, "Failed to get messages")
		return
	}
	respondJSON(w, http.StatusOK, window)
}

// CreateMessage handles POST /api/v1/messages as a multipart form with an
// optional "image" part
func (h *MessageHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.maxBytes); err != nil {
		writeError(w, r, err, "Invalid message request")
		return
	}
	image, closeImage, err := formUpload(r, "image")
	defer closeImage()
	if err != nil {
		writeError(w, r, err, "Invalid message request")
		return
	}

	msg, err := h.messages.Create(r.Context(), middleware.GetUserID(r.Context()), services.MessageInput{
		Title:    r.FormValue("title"),
		Content:  r.FormValue("content"),
		Category: r.FormValue("category"),
		Image:    image,
	})
	if err != nil {
		writeError(w, r, err, "Failed to create message")
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

// DeleteMessage handles DELETE /api/v1/messages/{id}?confirm=true
func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := h.messages.Delete(r.Context(), chi.URLParam(r, "id"), confirmed(r)); err != nil {
		writeError(w, r, err, "Failed to delete message")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
