package handlers

import (
	"net/http"

	"memories-backend/internal/models"
	"memories-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// MemoryHandler handles the memory map
type MemoryHandler struct {
	memories *services.MemoryService
}

// NewMemoryHandler creates a new memory handler
func NewMemoryHandler(memories *services.MemoryService) *MemoryHandler {
	return &MemoryHandler{memories: memories}
}

// GetMemories handles GET /api/v1/memories
func (h *MemoryHandler) GetMemories(w http.ResponseWriter, r *http.Request) {
	category, page := listParams(r)
	window, err := h.memories.List(r.Context(), category, page)
	if err != nil {
		writeError(w, r, err, "Failed to get memories")
		return
	}
	respondJSON(w, http.StatusOK, window)
}

// CreateMemory handles POST /api/v1/memories
func (h *MemoryHandler) CreateMemory(w http.ResponseWriter, r *http.Request) {
	var in services.MemoryInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err, "Invalid memory request")
		return
	}

	memory, err := h.memories.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err, "Failed to create memory")
		return
	}
	respondJSON(w, http.StatusCreated, memory)
}

// UpdateMemory handles PATCH /api/v1/memories/{id}
func (h *MemoryHandler) UpdateMemory(w http.ResponseWriter, r *http.Request) {
	var patch models.MemoryPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err, "Invalid memory request")
		return
	}

	memory, err := h.memories.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err, "Failed to update memory")
		return
	}
	respondJSON(w, http.StatusOK, memory)
}

// MapConfig handles GET /api/v1/map/config
func (h *MemoryHandler) MapConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.memories.MapConfig())
}

// Geocode handles GET /api/v1/map/geocode?query=
func (h *MemoryHandler) Geocode(w http.ResponseWriter, r *http.Request) {
	places, err := h.memories.Geocode(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeError(w, r, err, "Failed to geocode address")
		return
	}
	respondJSON(w, http.StatusOK, places)
}
