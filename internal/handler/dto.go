package handler

import (
	"time"

	"github.com/triforge/triforge-api/internal/model"
	"github.com/triforge/triforge-api/internal/service"
)

// ProjectResponse is the public shape of a project. Segment is the slug.
type ProjectResponse struct {
	ID       int64    `json:"id"`
	Segment  string   `json:"segment"`
	Category string   `json:"category"`
	Title    string   `json:"title"`
	Result   string   `json:"result"`
	Details  string   `json:"details"`
	Tags     []string `json:"tags"`
	Image    string   `json:"image"`
	ImageAlt string   `json:"imageAlt"`
}

func toProjectResponse(p *model.Project) ProjectResponse {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return ProjectResponse{
		ID:       p.ID,
		Segment:  segmentSlug(p.Segment),
		Category: p.Category,
		Title:    p.Title,
		Result:   p.Result,
		Details:  p.Details,
		Tags:     tags,
		Image:    p.Image,
		ImageAlt: p.ImageAlt,
	}
}

func toProjectResponses(projects []model.Project) []ProjectResponse {
	out := make([]ProjectResponse, len(projects))
	for i := range projects {
		out[i] = toProjectResponse(&projects[i])
	}
	return out
}

// UserResponse never includes the password hash.
type UserResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// ===== DASHBOARD =====

type RecentProject struct {
	ID           int64     `json:"id"`
	Segment      string    `json:"segment"`
	SegmentLabel string    `json:"segmentLabel"`
	Category     string    `json:"category"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"createdAt"`
}

type RecentContact struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	WhatsApp  *string   `json:"whatsapp"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type DashboardResponse struct {
	Me             model.Identity  `json:"me"`
	Metrics        service.Metrics `json:"metrics"`
	RecentProjects []RecentProject `json:"recentProjects"`
	RecentContacts []RecentContact `json:"recentContacts"`
}

func toDashboardResponse(d *service.Dashboard) DashboardResponse {
	resp := DashboardResponse{
		Me:             d.Me,
		Metrics:        d.Metrics,
		RecentProjects: make([]RecentProject, len(d.RecentProjects)),
		RecentContacts: make([]RecentContact, len(d.RecentContacts)),
	}
	for i, p := range d.RecentProjects {
		label := service.UnknownSegmentLabel
		if p.Segment != nil {
			label = p.Segment.Label
		}
		resp.RecentProjects[i] = RecentProject{
			ID:           p.ID,
			Segment:      segmentSlug(p.Segment),
			SegmentLabel: label,
			Category:     p.Category,
			Title:        p.Title,
			CreatedAt:    p.CreatedAt,
		}
	}
	for i, c := range d.RecentContacts {
		resp.RecentContacts[i] = RecentContact{
			ID:        c.ID,
			Name:      c.Name,
			Email:     c.Email,
			WhatsApp:  c.WhatsApp,
			Message:   c.Message,
			CreatedAt: c.CreatedAt,
		}
	}
	return resp
}

// segmentSlug reports a dangling segment reference as "unknown".
func segmentSlug(s *model.Segment) string {
	if s == nil {
		return service.UnknownSegmentSlug
	}
	return s.Slug
}
