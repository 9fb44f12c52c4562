package sqlite

import (
	"context"
	"testing"

	"github.com/triforge/triforge-api/internal/model"
)

// newTestDB opens a fresh in-memory database with the schema applied.
// t.Cleanup closes it when the test (or subtest) finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestSegment(t *testing.T, db *DB, slug, label string) *model.Segment {
	t.Helper()
	seg := &model.Segment{Slug: slug, Label: label}
	if err := db.EnsureSegment(context.Background(), seg); err != nil {
		t.Fatalf("failed to create test segment: %v", err)
	}
	return seg
}

func createTestProject(t *testing.T, db *DB, segmentID int64, title string) *model.Project {
	t.Helper()
	p := &model.Project{
		SegmentID: segmentID,
		Category:  "Web App",
		Title:     title,
		Result:    "Shipped on time",
		Details:   "Built end to end",
		Tags:      []string{"go", "api"},
		Image:     "https://cdn.test/" + title + ".png",
		ImageAlt:  title,
	}
	if err := db.CreateProject(context.Background(), p); err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}
	return p
}

func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	u := &model.User{Email: email, PasswordHash: "$2a$04$hash"}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// orphanSegment deletes a segment that still has projects, the way an
// operator editing the database by hand would.
func orphanSegment(t *testing.T, db *DB, id int64) {
	t.Helper()
	ctx := context.Background()
	if _, err := db.conn.ExecContext(ctx, `PRAGMA foreign_keys=OFF`); err != nil {
		t.Fatalf("disabling foreign keys: %v", err)
	}
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM segments WHERE id = ?`, id); err != nil {
		t.Fatalf("deleting segment: %v", err)
	}
	if _, err := db.conn.ExecContext(ctx, `PRAGMA foreign_keys=ON`); err != nil {
		t.Fatalf("enabling foreign keys: %v", err)
	}
}
