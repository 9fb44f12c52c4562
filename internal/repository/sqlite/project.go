package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/triforge/triforge-api/internal/apperror"
	"github.com/triforge/triforge-api/internal/model"
	"github.com/triforge/triforge-api/internal/repository"
	"github.com/triforge/triforge-api/internal/tags"
)

var _ repository.ProjectRepository = (*DB)(nil)

// projectSelect joins the segment with a LEFT JOIN so a project whose
// segment row is gone still comes back, with Segment left nil.
const projectSelect = `
	SELECT p.id, p.segment_id, p.category, p.title, p.result, p.details,
	       p.tags, p.image, p.image_alt, p.created_at, p.updated_at,
	       s.id, s.slug, s.label
	FROM projects p
	LEFT JOIN segments s ON s.id = p.segment_id`

func scanProject(row rowScanner) (*model.Project, error) {
	var (
		p        model.Project
		rawTags  string
		segID    sql.NullInt64
		segSlug  sql.NullString
		segLabel sql.NullString
	)
	err := row.Scan(
		&p.ID,
		&p.SegmentID,
		&p.Category,
		&p.Title,
		&p.Result,
		&p.Details,
		&rawTags,
		&p.Image,
		&p.ImageAlt,
		&p.CreatedAt,
		&p.UpdatedAt,
		&segID,
		&segSlug,
		&segLabel,
	)
	if err != nil {
		return nil, err
	}

	list, err := tags.Decode(rawTags)
	if err != nil {
		return nil, fmt.Errorf("project %d: %w", p.ID, err)
	}
	p.Tags = list

	if segID.Valid {
		p.Segment = &model.Segment{ID: segID.Int64, Slug: segSlug.String, Label: segLabel.String}
	}
	return &p, nil
}

// CreateProject inserts the project and re-reads it so Segment is populated.
func (db *DB) CreateProject(ctx context.Context, project *model.Project) error {
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO projects
		   (segment_id, category, title, result, details, tags, image, image_alt, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		project.SegmentID,
		project.Category,
		project.Title,
		project.Result,
		project.Details,
		tags.Encode(project.Tags),
		project.Image,
		project.ImageAlt,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.ValidationFailed("segment",
				fmt.Sprintf("segment %d does not exist", project.SegmentID))
		}
		return fmt.Errorf("sqlite: creating project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new project id: %w", err)
	}

	stored, err := db.GetProjectByID(ctx, id)
	if err != nil {
		return err
	}
	*project = *stored
	return nil
}

func (db *DB) GetProjectByID(ctx context.Context, id int64) (*model.Project, error) {
	p, err := scanProject(db.conn.QueryRowContext(ctx, projectSelect+` WHERE p.id = ?`, id))
	if err != nil {
		if notFound(err) {
			return nil, apperror.NotFound("project", fmt.Sprint(id))
		}
		return nil, fmt.Errorf("sqlite: getting project %d: %w", id, err)
	}
	return p, nil
}

// ListProjects returns projects newest first. SegmentSlug filters by the
// joined segment's slug.
func (db *DB) ListProjects(ctx context.Context, filter repository.ProjectFilter) ([]model.Project, error) {
	query := projectSelect
	var args []any

	if filter.SegmentSlug != "" {
		query += ` WHERE s.slug = ?`
		args = append(args, filter.SegmentSlug)
	}
	query += ` ORDER BY p.created_at DESC, p.id DESC`

	limit, limitArgs := limitClause(filter.ListOptions)
	query += limit
	args = append(args, limitArgs...)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing projects: %w", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning project row: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating project rows: %w", err)
	}
	return projects, nil
}

// UpdateProject overwrites every mutable column and re-reads the row.
func (db *DB) UpdateProject(ctx context.Context, project *model.Project) error {
	project.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE projects
		 SET segment_id = ?, category = ?, title = ?, result = ?, details = ?,
		     tags = ?, image = ?, image_alt = ?, updated_at = ?
		 WHERE id = ?`,
		project.SegmentID,
		project.Category,
		project.Title,
		project.Result,
		project.Details,
		tags.Encode(project.Tags),
		project.Image,
		project.ImageAlt,
		project.UpdatedAt,
		project.ID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperror.ValidationFailed("segment",
				fmt.Sprintf("segment %d does not exist", project.SegmentID))
		}
		return fmt.Errorf("sqlite: updating project %d: %w", project.ID, err)
	}
	if err := requireRow(result, "project", project.ID); err != nil {
		return err
	}

	stored, err := db.GetProjectByID(ctx, project.ID)
	if err != nil {
		return err
	}
	*project = *stored
	return nil
}

func (db *DB) DeleteProject(ctx context.Context, id int64) error {
	return db.deleteByID(ctx, "projects", "project", id)
}

func (db *DB) CountProjects(ctx context.Context) (int64, error) {
	return db.count(ctx, "projects")
}

// CountProjectsBySegment groups projects by segment_id. Segments without
// projects do not appear.
func (db *DB) CountProjectsBySegment(ctx context.Context) ([]model.SegmentCount, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT segment_id, COUNT(*) FROM projects GROUP BY segment_id ORDER BY segment_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: grouping projects by segment: %w", err)
	}
	defer rows.Close()

	counts := []model.SegmentCount{}
	for rows.Next() {
		var c model.SegmentCount
		if err := rows.Scan(&c.SegmentID, &c.Count); err != nil {
			return nil, fmt.Errorf("sqlite: scanning segment count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating segment counts: %w", err)
	}
	return counts, nil
}
