package handler

import (
	"log/slog"
	"net/http"

	"github.com/triforge/triforge-api/internal/service"
)

// ContactHandler serves the contact form (public POST) and the admin inbox.
type ContactHandler struct {
	contacts *service.ContactService
	responder
}

func NewContactHandler(contacts *service.ContactService, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{contacts: contacts, responder: newResponder(logger)}
}

// ContactCreatedResponse acknowledges a submitted message.
type ContactCreatedResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// HandleCreate stores a message from the public site. Any isRead in the
// body is ignored.
//
// HTTP: POST /api/contact
// REQUEST BODY: {"name": "...", "email": "...", "whatsapp": "...", "message": "..."}
func (h *ContactHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateContactInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	msg, err := h.contacts.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, ContactCreatedResponse{Message: "message sent", ID: msg.ID})
}

// HTTP: GET /api/contact
func (h *ContactHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := paging(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	messages, err := h.contacts.List(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, messages)
}

// HTTP: GET /api/contact/{id}
func (h *ContactHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	msg, err := h.contacts.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, msg)
}

// HTTP: PUT /api/contact/{id}
// REQUEST BODY: any subset of {"name", "email", "whatsapp", "message", "isRead"}
func (h *ContactHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var in service.UpdateContactInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	msg, err := h.contacts.Update(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, msg)
}

// HTTP: DELETE /api/contact/{id}
func (h *ContactHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.contacts.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
