package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/triforge/triforge-api/internal/model"
	"github.com/triforge/triforge-api/internal/repository"
)

// Placeholder slug and label for project counts whose segment row is gone.
const (
	UnknownSegmentSlug  = "unknown"
	UnknownSegmentLabel = "Unknown"
)

// SegmentTally is one entry of Metrics.ProjectsBySegment.
type SegmentTally struct {
	SegmentID    int64  `json:"segmentId"`
	SegmentSlug  string `json:"segmentSlug"`
	SegmentLabel string `json:"segmentLabel"`
	Count        int64  `json:"count"`
}

type Metrics struct {
	TotalProjects     int64          `json:"totalProjects"`
	TotalSegments     int64          `json:"totalSegments"`
	TotalContacts     int64          `json:"totalContacts"`
	ProjectsBySegment []SegmentTally `json:"projectsBySegment"`
}

// Dashboard is the composite admin overview.
type Dashboard struct {
	Me             model.Identity
	Metrics        Metrics
	RecentProjects []model.Project
	RecentContacts []model.ContactMessage
}

// DashboardService aggregates independent reads for the admin dashboard.
type DashboardService struct {
	projects repository.ProjectRepository
	segments repository.SegmentRepository
	contacts repository.ContactRepository
	logger   *slog.Logger
}

func NewDashboardService(
	projects repository.ProjectRepository,
	segments repository.SegmentRepository,
	contacts repository.ContactRepository,
	logger *slog.Logger,
) *DashboardService {
	return &DashboardService{
		projects: projects,
		segments: segments,
		contacts: contacts,
		logger:   logger,
	}
}

// Load runs every sub-query concurrently. The first failure cancels the
// rest and fails the whole dashboard; there are no partial results.
func (s *DashboardService) Load(ctx context.Context, me model.Identity) (*Dashboard, error) {
	d := &Dashboard{Me: me}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.projects.CountProjects(ctx)
		if err != nil {
			return fmt.Errorf("counting projects: %w", err)
		}
		d.Metrics.TotalProjects = n
		return nil
	})

	g.Go(func() error {
		n, err := s.segments.CountSegments(ctx)
		if err != nil {
			return fmt.Errorf("counting segments: %w", err)
		}
		d.Metrics.TotalSegments = n
		return nil
	})

	g.Go(func() error {
		n, err := s.contacts.CountContacts(ctx)
		if err != nil {
			return fmt.Errorf("counting contact messages: %w", err)
		}
		d.Metrics.TotalContacts = n
		return nil
	})

	g.Go(func() error {
		tallies, err := s.projectsBySegment(ctx)
		if err != nil {
			return err
		}
		d.Metrics.ProjectsBySegment = tallies
		return nil
	})

	g.Go(func() error {
		projects, err := s.projects.ListProjects(ctx, repository.ProjectFilter{
			ListOptions: repository.ListOptions{Limit: RecentLimit},
		})
		if err != nil {
			return fmt.Errorf("listing recent projects: %w", err)
		}
		d.RecentProjects = projects
		return nil
	})

	g.Go(func() error {
		contacts, err := s.contacts.ListContacts(ctx, repository.ListOptions{Limit: RecentLimit})
		if err != nil {
			return fmt.Errorf("listing recent contact messages: %w", err)
		}
		d.RecentContacts = contacts
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("dashboard aggregation failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("loading dashboard: %w", err)
	}
	return d, nil
}

// projectsBySegment joins the grouped counts with the segments that still
// exist. A count whose segment is gone gets the unknown placeholder.
func (s *DashboardService) projectsBySegment(ctx context.Context) ([]SegmentTally, error) {
	counts, err := s.projects.CountProjectsBySegment(ctx)
	if err != nil {
		return nil, fmt.Errorf("grouping projects by segment: %w", err)
	}

	tallies := make([]SegmentTally, 0, len(counts))
	if len(counts) == 0 {
		return tallies, nil
	}

	ids := make([]int64, len(counts))
	for i, c := range counts {
		ids[i] = c.SegmentID
	}
	segments, err := s.segments.ListSegmentsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading segments for counts: %w", err)
	}
	byID := make(map[int64]model.Segment, len(segments))
	for _, seg := range segments {
		byID[seg.ID] = seg
	}

	for _, c := range counts {
		t := SegmentTally{
			SegmentID:    c.SegmentID,
			SegmentSlug:  UnknownSegmentSlug,
			SegmentLabel: UnknownSegmentLabel,
			Count:        c.Count,
		}
		if seg, ok := byID[c.SegmentID]; ok {
			t.SegmentSlug = seg.Slug
			t.SegmentLabel = seg.Label
		}
		tallies = append(tallies, t)
	}
	return tallies, nil
}
