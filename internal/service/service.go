// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → decodes requests into typed inputs, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the database
//
// Services take repository interfaces, never a concrete store, so tests
// inject hand-written in-memory repositories and main.go picks SQLite or
// Postgres. Services return apperror values and know nothing about HTTP.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/triforge/triforge-api/internal/apperror"
	"github.com/triforge/triforge-api/internal/repository"
	"github.com/triforge/triforge-api/internal/validate"
)

// List paging bounds. A zero limit from the caller means "everything".
const (
	MaxListLimit = 100
	RecentLimit  = 5
)

// listOptions clamps caller-supplied paging into a sane range.
func listOptions(limit, offset int) repository.ListOptions {
	if limit < 0 {
		limit = 0
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return repository.ListOptions{Limit: limit, Offset: offset}
}

// requireNonNull records a message for a field sent as JSON null when the
// stored column cannot be null.
func requireNonNull(errs validate.Errors, field string, set, null bool) bool {
	if set && null {
		errs.Add(field, "cannot be null")
		return false
	}
	return set
}

// logFailure logs err unless it is an expected domain outcome.
func logFailure(logger *slog.Logger, msg string, err error, attrs ...any) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && !errors.Is(err, apperror.ErrUpstream) {
		return
	}
	logger.Error(msg, append(attrs, slog.String("error", err.Error()))...)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func idString(id int64) string {
	return fmt.Sprint(id)
}
