package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/triforge/triforge-api/internal/apperror"
	"github.com/triforge/triforge-api/internal/model"
	"github.com/triforge/triforge-api/internal/repository"
	"github.com/triforge/triforge-api/internal/tags"
)

var _ repository.ProjectRepository = (*DB)(nil)

const projectSelect = `
	SELECT p.id, p.segment_id, p.category, p.title, p.result, p.details,
	       p.tags, p.image, p.image_alt, p.created_at, p.updated_at,
	       s.id, s.slug, s.label
	FROM projects p
	LEFT JOIN segments s ON s.id = p.segment_id`

func scanProject(row pgx.Row) (*model.Project, error) {
	var (
		p        model.Project
		rawTags  string
		segID    *int64
		segSlug  *string
		segLabel *string
	)
	err := row.Scan(
		&p.ID, &p.SegmentID, &p.Category, &p.Title, &p.Result, &p.Details,
		&rawTags, &p.Image, &p.ImageAlt, &p.CreatedAt, &p.UpdatedAt,
		&segID, &segSlug, &segLabel,
	)
	if err != nil {
		return nil, err
	}

	list, err := tags.Decode(rawTags)
	if err != nil {
		return nil, fmt.Errorf("project %d: %w", p.ID, err)
	}
	p.Tags = list

	if segID != nil {
		p.Segment = &model.Segment{ID: *segID, Slug: deref(segSlug), Label: deref(segLabel)}
	}
	return &p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (db *DB) CreateProject(ctx context.Context, project *model.Project) error {
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	var id int64
	err := db.pool.QueryRow(ctx,
		`INSERT INTO projects
		   (segment_id, category, title, result, details, tags, image, image_alt, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		project.SegmentID, project.Category, project.Title, project.Result, project.Details,
		tags.Encode(project.Tags), project.Image, project.ImageAlt, project.CreatedAt, project.UpdatedAt,
	).Scan(&id)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return apperror.ValidationFailed("segment",
				fmt.Sprintf("segment %d does not exist", project.SegmentID))
		}
		return fmt.Errorf("postgres: creating project: %w", err)
	}

	stored, err := db.GetProjectByID(ctx, id)
	if err != nil {
		return err
	}
	*project = *stored
	return nil
}

func (db *DB) GetProjectByID(ctx context.Context, id int64) (*model.Project, error) {
	p, err := scanProject(db.pool.QueryRow(ctx, projectSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if notFound(err) {
			return nil, apperror.NotFound("project", fmt.Sprint(id))
		}
		return nil, fmt.Errorf("postgres: getting project %d: %w", id, err)
	}
	return p, nil
}

func (db *DB) ListProjects(ctx context.Context, filter repository.ProjectFilter) ([]model.Project, error) {
	query := projectSelect
	var args []any

	if filter.SegmentSlug != "" {
		args = append(args, filter.SegmentSlug)
		query += ` WHERE s.slug = $1`
	}
	query += ` ORDER BY p.created_at DESC, p.id DESC`

	limit, limitArgs := limitClause(filter.ListOptions, len(args)+1)
	query += limit
	args = append(args, limitArgs...)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing projects: %w", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning project row: %w", err)
		}
		projects = append(projects, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating project rows: %w", err)
	}
	return projects, nil
}

func (db *DB) UpdateProject(ctx context.Context, project *model.Project) error {
	project.UpdatedAt = time.Now().UTC()

	tag, err := db.pool.Exec(ctx,
		`UPDATE projects
		 SET segment_id = $1, category = $2, title = $3, result = $4, details = $5,
		     tags = $6, image = $7, image_alt = $8, updated_at = $9
		 WHERE id = $10`,
		project.SegmentID, project.Category, project.Title, project.Result, project.Details,
		tags.Encode(project.Tags), project.Image, project.ImageAlt, project.UpdatedAt, project.ID,
	)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return apperror.ValidationFailed("segment",
				fmt.Sprintf("segment %d does not exist", project.SegmentID))
		}
		return fmt.Errorf("postgres: updating project %d: %w", project.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("project", fmt.Sprint(project.ID))
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

func (db *DB) CountProjectsBySegment(ctx context.Context) ([]model.SegmentCount, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT segment_id, COUNT(*) FROM projects GROUP BY segment_id ORDER BY segment_id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: grouping projects by segment: %w", err)
	}
	defer rows.Close()

	counts := []model.SegmentCount{}
	for rows.Next() {
		var c model.SegmentCount
		if err := rows.Scan(&c.SegmentID, &c.Count); err != nil {
			return nil, fmt.Errorf("postgres: scanning segment count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating segment counts: %w", err)
	}
	return counts, nil
}
