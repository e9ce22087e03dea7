package handlers

import (
	"net/http"

	"memories-backend/internal/middleware"
	"memories-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// PhotoHandler handles photo-related HTTP requests
type PhotoHandler struct {
	gallery  *services.GalleryService
	maxBytes int64
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(gallery *services.GalleryService, maxBytes int64) *PhotoHandler {
	return &PhotoHandler{gallery: gallery, maxBytes: maxBytes}
}

// GetPhotos handles GET /api/v1/photos
func (h *PhotoHandler) GetPhotos(w http.ResponseWriter, r *http.Request) {
	category, page := listParams(r)
	window, err := h.gallery.List(r.Context(), category, page)
	if err != nil {
		writeError(w, r, err, "Failed to get photos")
		return
	}
	respondJSON(w, http.StatusOK, window)
}

// UploadPhotos handles POST /api/v1/photos with one or more "files" parts
func (h *PhotoHandler) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.maxBytes); err != nil {
		writeError(w, r, err, "Invalid upload request")
		return
	}
	files, closeFiles, err := formUploads(r, "files")
	defer closeFiles()
	if err != nil {
		writeError(w, r, err, "Invalid upload request")
		return
	}

	userID := middleware.GetUserID(r.Context())
	photos, err := h.gallery.Upload(r.Context(), userID, r.FormValue("category"), files)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Int("uploaded", len(photos)).Msg("Upload stopped")
		writeError(w, r, err, "Failed to upload photos")
		return
	}
	respondJSON(w, http.StatusCreated, photos)
}

// DescriptionRequest is an edited photo description
type DescriptionRequest struct {
	Description string `json:"description"`
}

// UpdateDescription handles PATCH /api/v1/photos/{id}
func (h *PhotoHandler) UpdateDescription(w http.ResponseWriter, r *http.Request) {
	var req DescriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, "Invalid description request")
		return
	}

	photo, err := h.gallery.UpdateDescription(r.Context(), chi.URLParam(r, "id"), req.Description)
	if err != nil {
		writeError(w, r, err, "Failed to update description")
		return
	}
	respondJSON(w, http.StatusOK, photo)
}

// DeletePhoto handles DELETE /api/v1/photos/{id}?confirm=true
func (h *PhotoHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	if err := h.gallery.Delete(r.Context(), chi.URLParam(r, "id"), confirmed(r)); err != nil {
		writeError(w, r, err, "Failed to delete photo")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
