package model

import "time"

// Segment is a taxonomy bucket projects belong to, e.g. "web" / "Web Apps".
// Segments are seeded at startup and are read-only through the API.
type Segment struct {
	ID    int64  `json:"id"    db:"id"`
	Slug  string `json:"slug"  db:"slug"`
	Label string `json:"label" db:"label"`
}

// Project is a portfolio entry.
//
// Tags are stored as a JSON array in a TEXT column; repositories encode and
// decode them so the rest of the code only ever sees []string.
//
// Segment is populated by repository reads (joined on segment_id). It is nil
// only when the referenced segment row no longer exists.
type Project struct {
	ID        int64     `db:"id"`
	SegmentID int64     `db:"segment_id"`
	Segment   *Segment  `db:"-"`
	Category  string    `db:"category"`
	Title     string    `db:"title"`
	Result    string    `db:"result"`
	Details   string    `db:"details"`
	Tags      []string  `db:"tags"`
	Image     string    `db:"image"`
	ImageAlt  string    `db:"image_alt"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SegmentSlug returns the slug of the joined segment, or "" when unknown.
func (p *Project) SegmentSlug() string {
	if p.Segment == nil {
		return ""
	}
	return p.Segment.Slug
}

// SegmentCount is one row of "projects grouped by segment".
type SegmentCount struct {
	SegmentID int64
	Count     int64
}
