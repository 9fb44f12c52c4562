package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/triforge/triforge-api/internal/apperror"
	"github.com/triforge/triforge-api/internal/asset"
	"github.com/triforge/triforge-api/internal/model"
	"github.com/triforge/triforge-api/internal/optional"
	"github.com/triforge/triforge-api/internal/repository"
	"github.com/triforge/triforge-api/internal/sanitize"
	"github.com/triforge/triforge-api/internal/tags"
	"github.com/triforge/triforge-api/internal/validate"
)

// AllSegments is the ?segment= value that disables the segment filter.
const AllSegments = "all"

// CreateProjectInput is a decoded create request. Tags is the raw value
// the transport saw (see tags.Normalize); Image is already resolved to a
// file, a URL or nothing.
type CreateProjectInput struct {
	Segment  string       `json:"segment"  validate:"required"`
	Category string       `json:"category" validate:"required,min=2,max=100"`
	Title    string       `json:"title"    validate:"required,min=3,max=200"`
	Result   string       `json:"result"   validate:"required,min=5"`
	Details  string       `json:"details"  validate:"required,min=5"`
	Tags     any          `json:"-"        validate:"-"`
	Image    asset.Source `json:"-"        validate:"-"`
	ImageAlt string       `json:"imageAlt" validate:"max=200"`
}

// UpdateProjectInput is a decoded partial update. Every field is
// independently optional. A nil Tags or a SourceNone Image leaves the
// stored value alone.
type UpdateProjectInput struct {
	Segment  optional.Field[string]
	Category optional.Field[string]
	Title    optional.Field[string]
	Result   optional.Field[string]
	Details  optional.Field[string]
	Tags     any
	Image    asset.Source
	ImageAlt optional.Field[string]
}

// ProjectService normalizes project input and writes it through the
// repositories. Images are uploaded only after every other check passed.
type ProjectService struct {
	projects  repository.ProjectRepository
	segments  repository.SegmentRepository
	uploader  asset.Uploader
	validator *validate.Validator
	logger    *slog.Logger
}

func NewProjectService(
	projects repository.ProjectRepository,
	segments repository.SegmentRepository,
	uploader asset.Uploader,
	validator *validate.Validator,
	logger *slog.Logger,
) *ProjectService {
	return &ProjectService{
		projects:  projects,
		segments:  segments,
		uploader:  uploader,
		validator: validator,
		logger:    logger,
	}
}

// Create validates in, resolves its segment slug, normalizes its tags and
// resolves its image, in that order.
func (s *ProjectService) Create(ctx context.Context, in CreateProjectInput) (*model.Project, error) {
	in.Segment = normalizeSlug(in.Segment)
	in.Category = sanitize.Plain(in.Category)
	in.Title = sanitize.Plain(in.Title)
	in.Result = sanitize.Rich(in.Result)
	in.Details = sanitize.Rich(in.Details)
	in.ImageAlt = sanitize.Plain(in.ImageAlt)

	errs := validate.NewErrors()
	s.validator.Struct(in, errs)
	s.checkImageURL(errs, in.Image)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	segment, err := s.resolveSegment(ctx, in.Segment)
	if err != nil {
		return nil, err
	}

	list, ok := tags.Normalize(in.Tags)
	if !ok {
		list = []string{}
	}

	image, err := asset.ResolveCreate(ctx, s.uploader, in.Image)
	if err != nil {
		logFailure(s.logger, "image upload failed", err)
		return nil, err
	}

	project := &model.Project{
		SegmentID: segment.ID,
		Segment:   segment,
		Category:  in.Category,
		Title:     in.Title,
		Result:    in.Result,
		Details:   in.Details,
		Tags:      list,
		Image:     image,
		ImageAlt:  altOrTitle(in.ImageAlt, in.Title),
	}

	// TODO: delete the uploaded asset when this write fails.
	if err := s.projects.CreateProject(ctx, project); err != nil {
		logFailure(s.logger, "failed to create project", err, slog.String("title", in.Title))
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project created",
		slog.Int64("id", project.ID),
		slog.String("segment", segment.Slug),
		slog.String("image", in.Image.Kind.String()),
	)
	return project, nil
}

// GetByID returns apperror.ErrNotFound when the project does not exist.
func (s *ProjectService) GetByID(ctx context.Context, id int64) (*model.Project, error) {
	return s.projects.GetProjectByID(ctx, id)
}

// List returns projects newest first. segment filters by slug; "" and
// "all" mean every segment.
func (s *ProjectService) List(ctx context.Context, segment string, limit, offset int) ([]model.Project, error) {
	segment = normalizeSlug(segment)
	if segment == AllSegments {
		segment = ""
	}

	projects, err := s.projects.ListProjects(ctx, repository.ProjectFilter{
		SegmentSlug: segment,
		ListOptions: listOptions(limit, offset),
	})
	if err != nil {
		s.logger.Error("failed to list projects", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// Update applies the present fields of in on top of the stored project.
// The segment is re-resolved only when a slug was supplied; tags only
// when they normalize to something; the image only for a new file or a
// non-empty URL.
func (s *ProjectService) Update(ctx context.Context, id int64, in UpdateProjectInput) (*model.Project, error) {
	project, err := s.projects.GetProjectByID(ctx, id)
	if err != nil {
		return nil, err
	}

	errs := validate.NewErrors()

	var slug string
	if requireNonNull(errs, "segment", in.Segment.Set, in.Segment.Null) {
		slug = normalizeSlug(in.Segment.Value)
		s.validator.Var(errs, "segment", slug, "required")
	}
	if requireNonNull(errs, "category", in.Category.Set, in.Category.Null) {
		project.Category = sanitize.Plain(in.Category.Value)
		s.validator.Var(errs, "category", project.Category, "required,min=2,max=100")
	}
	if requireNonNull(errs, "title", in.Title.Set, in.Title.Null) {
		project.Title = sanitize.Plain(in.Title.Value)
		s.validator.Var(errs, "title", project.Title, "required,min=3,max=200")
	}
	if requireNonNull(errs, "result", in.Result.Set, in.Result.Null) {
		project.Result = sanitize.Rich(in.Result.Value)
		s.validator.Var(errs, "result", project.Result, "required,min=5")
	}
	if requireNonNull(errs, "details", in.Details.Set, in.Details.Null) {
		project.Details = sanitize.Rich(in.Details.Value)
		s.validator.Var(errs, "details", project.Details, "required,min=5")
	}
	if in.ImageAlt.Set {
		alt, _ := in.ImageAlt.Get()
		alt = sanitize.Plain(alt)
		s.validator.Var(errs, "imageAlt", alt, "max=200")
		project.ImageAlt = altOrTitle(alt, project.Title)
	}
	s.checkImageURL(errs, in.Image)

	if err := errs.Err(); err != nil {
		return nil, err
	}

	if in.Segment.Set {
		segment, err := s.resolveSegment(ctx, slug)
		if err != nil {
			return nil, err
		}
		project.SegmentID = segment.ID
		project.Segment = segment
	}

	if list, ok := tags.Normalize(in.Tags); ok {
		project.Tags = list
	}

	image, err := asset.ResolveUpdate(ctx, s.uploader, in.Image, project.Image)
	if err != nil {
		logFailure(s.logger, "image upload failed", err, slog.Int64("id", id))
		return nil, err
	}
	project.Image = image

	if err := s.projects.UpdateProject(ctx, project); err != nil {
		logFailure(s.logger, "failed to update project", err, slog.Int64("id", id))
		return nil, fmt.Errorf("updating project: %w", err)
	}

	s.logger.Info("project updated", slog.Int64("id", project.ID), slog.String("image", in.Image.Kind.String()))
	return project, nil
}

// Delete returns apperror.ErrNotFound when the project does not exist.
func (s *ProjectService) Delete(ctx context.Context, id int64) error {
	if err := s.projects.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.logger.Info("project deleted", slog.Int64("id", id))
	return nil
}

// resolveSegment maps an unknown slug to a 400 that names it.
func (s *ProjectService) resolveSegment(ctx context.Context, slug string) (*model.Segment, error) {
	segment, err := s.segments.GetSegmentBySlug(ctx, slug)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.ValidationFailed("segment", fmt.Sprintf("segment %q does not exist", slug))
	}
	if err != nil {
		return nil, fmt.Errorf("resolving segment %q: %w", slug, err)
	}
	return segment, nil
}

// checkImageURL validates the image URL only when it is the input that
// will be used.
func (s *ProjectService) checkImageURL(errs validate.Errors, src asset.Source) {
	if src.Kind == asset.SourceURL {
		s.validator.Var(errs, "image", src.URL, "http_url")
	}
}

func altOrTitle(alt, title string) string {
	if alt = strings.TrimSpace(alt); alt != "" {
		return alt
	}
	return title
}
