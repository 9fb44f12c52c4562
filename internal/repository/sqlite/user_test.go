package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/triforge/triforge-api/internal/apperror"
	"github.com/triforge/triforge-api/internal/model"
	"github.com/triforge/triforge-api/internal/repository"
)

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	name := "Ayu"
	user := &model.User{Email: "ayu@example.com", PasswordHash: "hash", Name: &name}

	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if user.ID == 0 {
		t.Error("CreateUser() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("CreateUser() did not set user.CreatedAt")
	}

	got, err := db.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Email != "ayu@example.com" {
		t.Errorf("Email = %q, want %q", got.Email, "ayu@example.com")
	}
	if got.Name == nil || *got.Name != "Ayu" {
		t.Errorf("Name = %v, want Ayu", got.Name)
	}
	if got.PasswordHash != "hash" {
		t.Errorf("PasswordHash = %q, want %q", got.PasswordHash, "hash")
	}
}

func TestUserCreate_NilName(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "noname@example.com")

	got, err := db.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Name != nil {
		t.Errorf("Name = %q, want nil", *got.Name)
	}
}

func TestUserCreate_DuplicateEmailIsConflict(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "dup@example.com")

	err := db.CreateUser(context.Background(), &model.User{Email: "dup@example.com", PasswordHash: "x"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateUser() error = %v, want ErrConflict", err)
	}

	n, _ := db.CountUsers(context.Background())
	if n != 1 {
		t.Errorf("CountUsers() = %d, want 1", n)
	}
}

// =========================================================================
// READ TESTS
// =========================================================================

func TestGetUserByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), 404)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "find@example.com")

	got, err := db.GetUserByEmail(context.Background(), "find@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("ID = %d, want %d", got.ID, created.ID)
	}

	_, err = db.GetUserByEmail(context.Background(), "missing@example.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByEmail() error = %v, want ErrNotFound", err)
	}
}

func TestListUsers_NewestFirstAndSearch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := createTestUser(t, db, "alpha@example.com")
	name := "Bravo Admin"
	second := &model.User{Email: "b@example.com", PasswordHash: "x", Name: &name}
	if err := db.CreateUser(ctx, second); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	all, err := db.ListUsers(ctx, repository.UserFilter{})
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListUsers() returned %d users, want 2", len(all))
	}
	if all[0].ID != second.ID || all[1].ID != first.ID {
		t.Errorf("ListUsers() order = [%d %d], want [%d %d]", all[0].ID, all[1].ID, second.ID, first.ID)
	}

	byName, err := db.ListUsers(ctx, repository.UserFilter{Query: "bravo"})
	if err != nil {
		t.Fatalf("ListUsers(q) error = %v", err)
	}
	if len(byName) != 1 || byName[0].ID != second.ID {
		t.Errorf("ListUsers(bravo) = %v, want only user %d", byName, second.ID)
	}

	byEmail, err := db.ListUsers(ctx, repository.UserFilter{Query: "ALPHA"})
	if err != nil {
		t.Fatalf("ListUsers(q) error = %v", err)
	}
	if len(byEmail) != 1 || byEmail[0].ID != first.ID {
		t.Errorf("ListUsers(ALPHA) = %v, want only user %d", byEmail, first.ID)
	}

	none, err := db.ListUsers(ctx, repository.UserFilter{Query: "%"})
	if err != nil {
		t.Fatalf("ListUsers(%%) error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("ListUsers(%%) returned %d users, want wildcard treated literally", len(none))
	}
}

// =========================================================================
// UPDATE / DELETE TESTS
// =========================================================================

func TestUpdateUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "old@example.com")
	createTestUser(t, db, "taken@example.com")

	user.Email = "new@example.com"
	if err := db.UpdateUser(ctx, user); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}

	got, _ := db.GetUserByID(ctx, user.ID)
	if got.Email != "new@example.com" {
		t.Errorf("Email = %q, want new@example.com", got.Email)
	}

	user.Email = "taken@example.com"
	if err := db.UpdateUser(ctx, user); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("UpdateUser() error = %v, want ErrConflict", err)
	}

	if err := db.UpdateUser(ctx, &model.User{ID: 999, Email: "x@example.com"}); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateUser(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDeleteUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "bye@example.com")

	if err := db.DeleteUser(ctx, user.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if _, err := db.GetUserByID(ctx, user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() after delete error = %v, want ErrNotFound", err)
	}
	if err := db.DeleteUser(ctx, user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteUser() twice error = %v, want ErrNotFound", err)
	}
}
