package postgres

import (
	"context"
	"fmt"

	"github.com/triforge/triforge-api/internal/apperror"
	"github.com/triforge/triforge-api/internal/model"
	"github.com/triforge/triforge-api/internal/repository"
)

var _ repository.SegmentRepository = (*DB)(nil)

func (db *DB) GetSegmentBySlug(ctx context.Context, slug string) (*model.Segment, error) {
	var s model.Segment
	err := db.pool.QueryRow(ctx,
		`SELECT id, slug, label FROM segments WHERE slug = $1`, slug,
	).Scan(&s.ID, &s.Slug, &s.Label)
	if err != nil {
		if notFound(err) {
			return nil, apperror.NotFound("segment", slug)
		}
		return nil, fmt.Errorf("postgres: getting segment %q: %w", slug, err)
	}
	return &s, nil
}

func (db *DB) ListSegments(ctx context.Context) ([]model.Segment, error) {
	return db.querySegments(ctx, `SELECT id, slug, label FROM segments ORDER BY label, id`)
}

func (db *DB) ListSegmentsByIDs(ctx context.Context, ids []int64) ([]model.Segment, error) {
	if len(ids) == 0 {
		return []model.Segment{}, nil
	}
	return db.querySegments(ctx,
		`SELECT id, slug, label FROM segments WHERE id = ANY($1) ORDER BY id`, ids)
}

func (db *DB) querySegments(ctx context.Context, query string, args ...any) ([]model.Segment, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing segments: %w", err)
	}
	defer rows.Close()

	segments := []model.Segment{}
	for rows.Next() {
		var s model.Segment
		if err := rows.Scan(&s.ID, &s.Slug, &s.Label); err != nil {
			return nil, fmt.Errorf("postgres: scanning segment row: %w", err)
		}
		segments = append(segments, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating segment rows: %w", err)
	}
	return segments, nil
}

func (db *DB) EnsureSegment(ctx context.Context, segment *model.Segment) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO segments (slug, label) VALUES ($1, $2) ON CONFLICT (slug) DO NOTHING`,
		segment.Slug, segment.Label,
	)
	if err != nil {
		return fmt.Errorf("postgres: ensuring segment %q: %w", segment.Slug, err)
	}

	stored, err := db.GetSegmentBySlug(ctx, segment.Slug)
	if err != nil {
		return err
	}
	*segment = *stored
	return nil
}

func (db *DB) CountSegments(ctx context.Context) (int64, error) {
	return db.count(ctx, "segments")
}
