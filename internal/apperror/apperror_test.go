// Run with: go test ./internal/apperror/ -v
package apperror

import (
	"errors"
	"fmt"
	"testing"
)

// TABLE-DRIVEN TESTS:
// One slice of named cases, one loop of assertions. Each case shows up as a
// sub-test in the output.

func TestErrorsIs(t *testing.T) {
	cause := errors.New("cloudinary: 401 invalid signature")

	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{"NotFound wraps ErrNotFound", NotFound("project", "7"), ErrNotFound, true},
		{"ValidationFailed wraps ErrValidation", ValidationFailed("title", "title is required"), ErrValidation, true},
		{"Invalid wraps ErrValidation", Invalid(map[string][]string{"email": {"must be a valid email address"}}), ErrValidation, true},
		{"BadRequest wraps ErrValidation", BadRequest("no fields to update"), ErrValidation, true},
		{"Conflict wraps ErrConflict", Conflict("segment", "web"), ErrConflict, true},
		{"ConflictMessage wraps ErrConflict", ConflictMessage("email already registered"), ErrConflict, true},
		{"Forbidden wraps ErrForbidden", Forbidden("admins only"), ErrForbidden, true},
		{"Unauthorized wraps ErrUnauthorized", Unauthorized("invalid email or password"), ErrUnauthorized, true},
		{"Upstream wraps ErrUpstream", Upstream("failed to upload image", cause), ErrUpstream, true},
		{"Upstream keeps its cause", Upstream("failed to upload image", cause), cause, true},
		{"NotFound does NOT match ErrValidation", NotFound("project", "7"), ErrValidation, false},
		{"Unauthorized does NOT match ErrForbidden", Unauthorized("token expired"), ErrForbidden, false},
		{"wrapped NotFound still matches", fmt.Errorf("loading project: %w", NotFound("project", "7")), ErrNotFound, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{"not found", NotFound("project", "7"), "project not found with id 7"},
		{"conflict", Conflict("segment", "web"), "segment conflict with id web"},
		{"validation", ValidationFailed("email", "must be a valid email address"), "must be a valid email address"},
		{"invalid", Invalid(map[string][]string{"title": {"is required"}}), "validation failed"},
		{"bad request", BadRequest("invalid id"), "invalid id"},
		{"upstream", Upstream("failed to upload image", errors.New("timeout")), "failed to upload image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("updating user 3: %w", ValidationFailed("password", "must be at most 72 bytes"))

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatalf("errors.As did not find *AppError in %v", wrapped)
	}
	if appErr.Field != "password" {
		t.Errorf("Field = %q, want %q", appErr.Field, "password")
	}
	if got := appErr.Fields["password"]; len(got) != 1 || got[0] != "must be at most 72 bytes" {
		t.Errorf("Fields[password] = %v", got)
	}
}

func TestInvalidKeepsEveryField(t *testing.T) {
	fields := map[string][]string{
		"title":    {"must be at least 3 characters"},
		"category": {"is required", "must be at least 2 characters"},
	}
	err := Invalid(fields)

	if len(err.Fields) != 2 || len(err.Fields["category"]) != 2 {
		t.Errorf("Fields = %v, want both fields with all messages", err.Fields)
	}
	if err.Field != "" {
		t.Errorf("Field = %q, want empty for a multi-field error", err.Field)
	}
}

func TestUpstreamDetail(t *testing.T) {
	err := Upstream("failed to upload image", errors.New("cloudinary: 420 rate limited"))
	if err.Detail != "cloudinary: 420 rate limited" {
		t.Errorf("Detail = %q", err.Detail)
	}

	noCause := Upstream("asset host unavailable", nil)
	if noCause.Detail != "" {
		t.Errorf("Detail = %q, want empty without a cause", noCause.Detail)
	}
	if !errors.Is(noCause, ErrUpstream) {
		t.Error("Upstream(nil cause) must still match ErrUpstream")
	}
}
