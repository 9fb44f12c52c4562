package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/triforge/triforge-api/internal/apperror"
	"github.com/triforge/triforge-api/internal/model"
	"github.com/triforge/triforge-api/internal/repository"
)

// SegmentService exposes the read-only segment taxonomy and seeds it at
// startup.
type SegmentService struct {
	repo   repository.SegmentRepository
	logger *slog.Logger
}

func NewSegmentService(repo repository.SegmentRepository, logger *slog.Logger) *SegmentService {
	return &SegmentService{repo: repo, logger: logger}
}

// List returns every segment ordered by label.
func (s *SegmentService) List(ctx context.Context) ([]model.Segment, error) {
	segments, err := s.repo.ListSegments(ctx)
	if err != nil {
		s.logger.Error("failed to list segments", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing segments: %w", err)
	}
	return segments, nil
}

// GetBySlug looks a segment up case-insensitively.
func (s *SegmentService) GetBySlug(ctx context.Context, slug string) (*model.Segment, error) {
	slug = normalizeSlug(slug)
	if slug == "" {
		return nil, apperror.ValidationFailed("slug", "segment slug is required")
	}
	return s.repo.GetSegmentBySlug(ctx, slug)
}

// Seed inserts every segment of spec that does not exist yet and returns
// how many segments spec named. spec has the form "slug:Label,slug2:Label 2";
// a missing label is derived from the slug.
func (s *SegmentService) Seed(ctx context.Context, spec string) (int, error) {
	segments, err := ParseSegments(spec)
	if err != nil {
		return 0, err
	}
	for i := range segments {
		if err := s.repo.EnsureSegment(ctx, &segments[i]); err != nil {
			return i, fmt.Errorf("seeding segment %q: %w", segments[i].Slug, err)
		}
	}
	if len(segments) > 0 {
		s.logger.Info("segments seeded", slog.Int("count", len(segments)))
	}
	return len(segments), nil
}

// ParseSegments parses a SEED_SEGMENTS value.
func ParseSegments(spec string) ([]model.Segment, error) {
	var out []model.Segment
	seen := make(map[string]bool)
	title := cases.Title(language.English)

	for _, item := range strings.Split(spec, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		slug, label, _ := strings.Cut(item, ":")
		slug = normalizeSlug(slug)
		label = strings.TrimSpace(label)
		if slug == "" {
			return nil, fmt.Errorf("segment %q has an empty slug", item)
		}
		if seen[slug] {
			continue
		}
		seen[slug] = true
		if label == "" {
			label = title.String(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
		}
		out = append(out, model.Segment{Slug: slug, Label: label})
	}
	return out, nil
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
