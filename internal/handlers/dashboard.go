package handlers

import (
	"net/http"

	"memories-backend/internal/middleware"
	"memories-backend/internal/services"
)

// DashboardHandler serves the landing view
type DashboardHandler struct {
	dashboard *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GetDashboard handles GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.dashboard.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err, "Failed to get dashboard")
		return
	}
	respondJSON(w, http.StatusOK, d)
}
