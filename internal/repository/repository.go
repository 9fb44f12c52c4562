// Package repository declares the storage contracts the services depend on.
//
// Two implementations exist: repository/sqlite (embedded, the default) and
// repository/postgres. Both return apperror.NotFound for missing rows and
// wrap every driver failure with the backend name.
package repository

import (
	"context"

	"github.com/triforge/triforge-api/internal/model"
)

// ListOptions bounds a list query. A zero Limit means "no limit".
type ListOptions struct {
	Limit  int
	Offset int
}

// UserFilter narrows ListUsers. Query matches email or name, case-insensitive.
type UserFilter struct {
	Query string
	ListOptions
}

// ProjectFilter narrows ListProjects. An empty SegmentSlug means every segment.
type ProjectFilter struct {
	SegmentSlug string
	ListOptions
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	// GetUserByEmail returns apperror.NotFound when no user has that email.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id int64) error
	CountUsers(ctx context.Context) (int64, error)
}

type SegmentRepository interface {
	GetSegmentBySlug(ctx context.Context, slug string) (*model.Segment, error)
	ListSegments(ctx context.Context) ([]model.Segment, error)
	// ListSegmentsByIDs returns the segments that still exist; missing ids
	// are silently skipped.
	ListSegmentsByIDs(ctx context.Context, ids []int64) ([]model.Segment, error)
	// EnsureSegment inserts the segment if its slug is unknown and fills in
	// the stored ID either way.
	EnsureSegment(ctx context.Context, segment *model.Segment) error
	CountSegments(ctx context.Context) (int64, error)
}

type ProjectRepository interface {
	// CreateProject inserts the project and sets ID and timestamps.
	CreateProject(ctx context.Context, project *model.Project) error
	// GetProjectByID returns the project joined with its segment.
	GetProjectByID(ctx context.Context, id int64) (*model.Project, error)
	// ListProjects returns projects newest first, each joined with its segment.
	ListProjects(ctx context.Context, filter ProjectFilter) ([]model.Project, error)
	UpdateProject(ctx context.Context, project *model.Project) error
	DeleteProject(ctx context.Context, id int64) error
	CountProjects(ctx context.Context) (int64, error)
	CountProjectsBySegment(ctx context.Context) ([]model.SegmentCount, error)
}

type ContactRepository interface {
	CreateContact(ctx context.Context, msg *model.ContactMessage) error
	GetContactByID(ctx context.Context, id int64) (*model.ContactMessage, error)
	// ListContacts returns messages newest first.
	ListContacts(ctx context.Context, opts ListOptions) ([]model.ContactMessage, error)
	UpdateContact(ctx context.Context, msg *model.ContactMessage) error
	DeleteContact(ctx context.Context, id int64) error
	CountContacts(ctx context.Context) (int64, error)
}

// Store is a whole backend: every repository plus its lifecycle. It is
// constructed once at startup, injected, and closed on shutdown.
type Store interface {
	UserRepository
	SegmentRepository
	ProjectRepository
	ContactRepository
	Ping(ctx context.Context) error
	Close() error
}
