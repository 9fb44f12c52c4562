// Package handler contains the HTTP request handlers of the API.
//
// WHAT IS A HANDLER?
// In Go, an HTTP handler is anything that implements http.Handler:
//
//	type Handler interface {
//	    ServeHTTP(ResponseWriter, *Request)
//	}
//
// Chi accepts plain methods with the http.HandlerFunc signature directly.
//
// HANDLER RESPONSIBILITIES:
//  1. Decode the request into a typed service input (JSON or multipart)
//  2. Call the service
//  3. Map the result to a response DTO, or the error through writeError
//
// Handlers hold no business rules.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers liveness and readiness checks.
type HealthHandler struct {
	store Pinger
	responder
}

func NewHealthHandler(store Pinger, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{store: store, responder: newResponder(logger)}
}

// StatusResponse is the body of the health endpoints.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HandleRoot confirms the process is serving.
//
// HTTP: GET /
func (h *HealthHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, StatusResponse{Status: "ok", Message: "Triforge API is running"})
}

// HandleReady pings the store.
//
// HTTP: GET /healthz
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warn("readiness check failed", slog.String("error", err.Error()))
		h.writeJSON(w, r, http.StatusServiceUnavailable, StatusResponse{Status: "unavailable", Message: "store unreachable"})
		return
	}
	h.writeJSON(w, r, http.StatusOK, StatusResponse{Status: "ok", Message: "store reachable"})
}
