package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from our API has the same shape:
//
//	{"error": "validation_error", "message": "validation failed",
//	 "errors": {"title": ["must be at least 3 characters"]}}
//
// "errors" is present only for validation failures and "detail" only for
// upstream (asset host) failures.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/triforge/triforge-api/internal/apperror"
)

// maxJSONBytes caps JSON request bodies.
const maxJSONBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string              `json:"error"`            // Machine-readable error type (e.g., "not_found")
	Message string              `json:"message"`          // Human-readable description
	Errors  map[string][]string `json:"errors,omitempty"` // Per-field validation messages
	Detail  string              `json:"detail,omitempty"` // Upstream diagnostic
}

// MessageResponse is the body of responses that only acknowledge an action.
type MessageResponse struct {
	Message string `json:"message"`
}

// DataResponse wraps a payload as {"data": ...}.
type DataResponse struct {
	Data any `json:"data"`
}

// responder writes JSON responses and logs through the handler's injected
// logger. Every handler embeds one.
type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

// requestAttrs ties a log line to its request.
func requestAttrs(r *http.Request) []slog.Attr {
	return []slog.Attr{
		slog.String("requestID", chimiddleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	}
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set before the body is written; once Encode
// writes, later header changes are silently ignored.
func (rs responder) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			rs.logger.LogAttrs(r.Context(), slog.LevelError, "failed to encode JSON response",
				append(requestAttrs(r), slog.String("error", err.Error()))...)
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
//
// errors.Is walks the whole chain, so a service returning
// fmt.Errorf("creating project: %w", apperror.ValidationFailed(...)) still
// maps to 400.
func (rs responder) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		resp := ErrorResponse{Error: "internal_error", Message: appErr.Message}

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest // 400
			resp.Error = "validation_error"
			resp.Errors = appErr.Fields
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound // 404
			resp.Error = "not_found"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized // 401
			resp.Error = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden // 403
			resp.Error = "forbidden"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict // 409
			resp.Error = "conflict"
		case errors.Is(err, apperror.ErrUpstream):
			resp.Error = "upstream_error"
			resp.Detail = appErr.Detail
			rs.logger.LogAttrs(r.Context(), slog.LevelError, "upstream failure",
				append(requestAttrs(r), slog.String("error", err.Error()))...)
		}

		rs.writeJSON(w, r, status, resp)
		return
	}

	// Unknown error: log the detail, return a generic 500. The raw message
	// might contain SQL or file paths.
	rs.logger.LogAttrs(r.Context(), slog.LevelError, "internal error",
		append(requestAttrs(r), slog.String("error", err.Error()))...)
	rs.writeJSON(w, r, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads a single JSON value from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)
	err := json.NewDecoder(r.Body).Decode(dst)

	var maxErr *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return apperror.BadRequest("request body is empty")
	case errors.As(err, &maxErr):
		return apperror.BadRequest(fmt.Sprintf("request body must be %d bytes or less", maxErr.Limit))
	default:
		return apperror.BadRequest("invalid JSON body: " + err.Error())
	}
}

// pathID parses the {id} path parameter. Non-numeric and non-positive ids
// are rejected before any service is called.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.BadRequest("invalid id")
	}
	return id, nil
}

// paging reads ?limit= and ?offset=. Missing values are zero.
func paging(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	if limit, err = queryInt(q.Get("limit"), "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(q.Get("offset"), "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func queryInt(raw, field string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.ValidationFailed(field, "must be a non-negative integer")
	}
	return n, nil
}
