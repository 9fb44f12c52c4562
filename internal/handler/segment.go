package handler

import (
	"log/slog"
	"net/http"

	"github.com/triforge/triforge-api/internal/service"
)

// SegmentHandler serves the public, read-only segment taxonomy.
type SegmentHandler struct {
	segments *service.SegmentService
	responder
}

func NewSegmentHandler(segments *service.SegmentService, logger *slog.Logger) *SegmentHandler {
	return &SegmentHandler{segments: segments, responder: newResponder(logger)}
}

// HTTP: GET /api/segments
func (h *SegmentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	segments, err := h.segments.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, segments)
}

// HTTP: GET /api/segments/{slug}
func (h *SegmentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	segment, err := h.segments.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, segment)
}
