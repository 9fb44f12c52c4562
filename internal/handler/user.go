package handler

import (
	"log/slog"
	"net/http"

	"github.com/triforge/triforge-api/internal/service"
)

// UserHandler serves /api/users. Every route is gated. Responses are
// wrapped as {"data": ...}.
type UserHandler struct {
	users *service.UserService
	responder
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, responder: newResponder(logger)}
}

// HandleList returns users newest first.
//
// HTTP: GET /api/users?q=ada&limit=20&offset=0
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := paging(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	users, err := h.users.List(r.Context(), r.URL.Query().Get("q"), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]UserResponse, len(users))
	for i := range users {
		out[i] = toUserResponse(&users[i])
	}
	h.writeJSON(w, r, http.StatusOK, DataResponse{Data: out})
}

// HTTP: GET /api/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, DataResponse{Data: toUserResponse(user)})
}

// HTTP: POST /api/users
// REQUEST BODY: {"email": "...", "password": "...", "name": "..."}
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateUserInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.users.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, DataResponse{Data: toUserResponse(user)})
}

// HTTP: PUT /api/users/{id}
// REQUEST BODY: any subset of {"email", "password", "name"}; "name": null clears it.
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var in service.UpdateUserInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.users.Update(r.Context(), id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, DataResponse{Data: toUserResponse(user)})
}

// HTTP: DELETE /api/users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, MessageResponse{Message: "user deleted"})
}
