package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/triforge/triforge-api/internal/apperror"
	"github.com/triforge/triforge-api/internal/auth"
	"github.com/triforge/triforge-api/internal/model"
	"github.com/triforge/triforge-api/internal/optional"
	"github.com/triforge/triforge-api/internal/repository"
	"github.com/triforge/triforge-api/internal/validate"
)

// CreateUserInput is the body of POST /api/users and /api/auth/register.
type CreateUserInput struct {
	Email    string  `json:"email"    validate:"required,email,max=254"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	Name     *string `json:"name"     validate:"omitempty,min=2,max=100"`
}

// UpdateUserInput is the body of PUT /api/users/{id}. Absent fields keep
// their stored value; "name": null clears the name.
type UpdateUserInput struct {
	Email    optional.Field[string] `json:"email"`
	Password optional.Field[string] `json:"password"`
	Name     optional.Field[string] `json:"name"`
}

func (in UpdateUserInput) empty() bool {
	return !in.Email.Set && !in.Password.Set && !in.Name.Set
}

// UserService manages admin accounts.
type UserService struct {
	repo      repository.UserRepository
	passwords *auth.PasswordService
	validator *validate.Validator
	logger    *slog.Logger
}

func NewUserService(
	repo repository.UserRepository,
	passwords *auth.PasswordService,
	validator *validate.Validator,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		repo:      repo,
		passwords: passwords,
		validator: validator,
		logger:    logger,
	}
}

// Create validates the input, rejects a taken email with a conflict before
// anything is written, and stores the account with a bcrypt hash.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*model.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = trimName(in.Name)

	errs := validate.NewErrors()
	s.validator.Struct(in, errs)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if err := s.ensureEmailFree(ctx, in.Email, 0); err != nil {
		return nil, err
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		logFailure(s.logger, "failed to create user", err, slog.String("email", in.Email))
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created", slog.Int64("id", user.ID), slog.String("email", user.Email))
	return user, nil
}

// GetByID returns apperror.ErrNotFound when the user does not exist.
func (s *UserService) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// List returns users newest first, optionally filtered by a search term
// matched against email and name.
func (s *UserService) List(ctx context.Context, query string, limit, offset int) ([]model.User, error) {
	users, err := s.repo.ListUsers(ctx, repository.UserFilter{
		Query:       strings.TrimSpace(query),
		ListOptions: listOptions(limit, offset),
	})
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// Update applies the present fields of in. A missing user is reported first;
// after that an update with no fields is a validation error, as is an email
// that belongs to another account.
func (s *UserService) Update(ctx context.Context, id int64, in UpdateUserInput) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.empty() {
		return nil, apperror.BadRequest("no fields to update")
	}

	errs := validate.NewErrors()

	var newEmail string
	if requireNonNull(errs, "email", in.Email.Set, in.Email.Null) {
		newEmail = normalizeEmail(in.Email.Value)
		s.validator.Var(errs, "email", newEmail, "required,email,max=254")
	}

	var newPassword string
	if requireNonNull(errs, "password", in.Password.Set, in.Password.Null) {
		newPassword = in.Password.Value
		s.validator.Var(errs, "password", newPassword, "required,min=6,max=72")
	}

	var newName *string
	if in.Name.Set {
		if v, ok := in.Name.Get(); ok {
			newName = trimName(&v)
			if newName != nil {
				s.validator.Var(errs, "name", *newName, "min=2,max=100")
			}
		}
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}

	if in.Email.Set && newEmail != user.Email {
		if err := s.ensureEmailFree(ctx, newEmail, user.ID); err != nil {
			return nil, err
		}
		user.Email = newEmail
	}
	if in.Password.Set {
		hash, err := s.hash(newPassword)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if in.Name.Set {
		user.Name = newName
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		logFailure(s.logger, "failed to update user", err, slog.Int64("id", id))
		return nil, fmt.Errorf("updating user: %w", err)
	}

	s.logger.Info("user updated", slog.Int64("id", user.ID))
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", slog.Int64("id", id))
	return nil
}

// ensureEmailFree returns a conflict when email belongs to a user other
// than self (0 for a new account).
func (s *UserService) ensureEmailFree(ctx context.Context, email string, self int64) error {
	existing, err := s.repo.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return nil
	case err != nil:
		s.logger.Error("failed to look up email", slog.String("error", err.Error()))
		return fmt.Errorf("checking email: %w", err)
	case existing.ID != self:
		return apperror.ConflictMessage("email already registered")
	default:
		return nil
	}
}

func (s *UserService) hash(password string) (string, error) {
	hash, err := s.passwords.Hash(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", apperror.ValidationFailed("password", "must be at most 72 bytes")
	}
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return hash, nil
}

// trimName trims a display name; blank becomes nil.
func trimName(name *string) *string {
	if name == nil {
		return nil
	}
	v := strings.TrimSpace(*name)
	if v == "" {
		return nil
	}
	return &v
}
