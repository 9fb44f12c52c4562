package handler

import (
	"log/slog"
	"net/http"

	"github.com/triforge/triforge-api/internal/auth"
	"github.com/triforge/triforge-api/internal/service"
)

// DashboardHandler serves the admin overview.
type DashboardHandler struct {
	dashboard *service.DashboardService
	responder
}

func NewDashboardHandler(dashboard *service.DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, responder: newResponder(logger)}
}

// HTTP: GET /api/admin/dashboard
// Auth: Required
func (h *DashboardHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	me, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		h.writeJSON(w, r, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "authentication required"})
		return
	}

	d, err := h.dashboard.Load(r.Context(), me)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, toDashboardResponse(d))
}
