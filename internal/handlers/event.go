package handlers

import (
	"net/http"

	"memories-backend/internal/services"
)

// EventHandler handles the timeline
type EventHandler struct {
	timeline *services.TimelineService
	maxBytes int64
}

// NewEventHandler creates a new event handler
func NewEventHandler(timeline *services.TimelineService, maxBytes int64) *EventHandler {
	return &EventHandler{timeline: timeline, maxBytes: maxBytes}
}

// GetEvents handles GET /api/v1/events
func (h *EventHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	category, page := listParams(r)
	window, err := h.timeline.List(r.Context(), category, page)
	if err != nil {
		writeError(w, r, err, "Failed to get events")
		return
	}
	respondJSON(w, http.StatusOK, window)
}

// CreateEvent handles POST /api/v1/events as a multipart form with either an
// "image" part or an "image_url" field
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.maxBytes); err != nil {
		writeError(w, r, err, "Invalid event request")
		return
	}
	image, closeImage, err := formUpload(r, "image")
	defer closeImage()
	if err != nil {
		writeError(w, r, err, "Invalid event request")
		return
	}

	event, err := h.timeline.Create(r.Context(), services.EventInput{
		Title:       r.FormValue("title"),
		Date:        r.FormValue("date"),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
		ImageURL:    r.FormValue("image_url"),
		Image:       image,
	})
	if err != nil {
		writeError(w, r, err, "Failed to create event")
		return
	}
	respondJSON(w, http.StatusCreated, event)
}
