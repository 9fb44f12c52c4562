package service

// AuthService sits between the HTTP handlers and the credential utilities:
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                               ↘ TokenService (JWT), PasswordService (bcrypt)
//
// It also implements auth.Verifier for the gate middleware.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/triforge/triforge-api/internal/apperror"
	"github.com/triforge/triforge-api/internal/auth"
	"github.com/triforge/triforge-api/internal/model"
	"github.com/triforge/triforge-api/internal/repository"
	"github.com/triforge/triforge-api/internal/validate"
)

var _ auth.Verifier = (*AuthService)(nil)

// LoginInput is the body of POST /api/auth/login.
type LoginInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult bundles the user and the issued JWT so the handler can set
// the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

type AuthService struct {
	users     repository.UserRepository
	accounts  *UserService
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	validator *validate.Validator
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	accounts *UserService,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	validator *validate.Validator,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		accounts:  accounts,
		tokens:    tokens,
		passwords: passwords,
		validator: validator,
		logger:    logger,
	}
}

// Login checks the credentials and issues a token. An unknown email and a
// wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)

	errs := validate.NewErrors()
	s.validator.Struct(in, errs)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, apperror.ErrNotFound) {
		s.logger.Warn("login failed", slog.String("email", in.Email), slog.String("reason", "unknown email"))
		return nil, apperror.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, in.Password); err != nil {
		if !errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Error("stored password hash unusable",
				slog.Int64("userID", user.ID), slog.String("error", err.Error()))
		}
		s.logger.Warn("login failed", slog.String("email", in.Email), slog.String("reason", "wrong password"))
		return nil, apperror.Unauthorized("invalid email or password")
	}

	return s.issue(user)
}

// Register creates a new admin account and signs it in.
func (s *AuthService) Register(ctx context.Context, in CreateUserInput) (*AuthResult, error) {
	user, err := s.accounts.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Me returns the full record of the authenticated user.
func (s *AuthService) Me(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Unauthorized("account no longer exists")
	}
	return user, err
}

// Verify implements auth.Verifier: the token must be valid and its subject
// must still be an existing user.
func (s *AuthService) Verify(ctx context.Context, token string) (model.Identity, error) {
	id, err := s.tokens.Validate(token)
	if err != nil {
		return model.Identity{}, apperror.Unauthorized("invalid or expired token")
	}

	user, err := s.Me(ctx, id)
	if err != nil {
		return model.Identity{}, err
	}
	return user.Identity(), nil
}

// EnsureAdmin creates the first account when the user table is empty.
// It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string, name *string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}

	n, err := s.users.CountUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("counting users: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	user, err := s.accounts.Create(ctx, CreateUserInput{Email: email, Password: password, Name: name})
	if err != nil {
		return false, fmt.Errorf("bootstrapping admin: %w", err)
	}

	s.logger.Info("admin account bootstrapped", slog.String("email", user.Email))
	return true, nil
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generating token for user %d: %w", user.ID, err)
	}
	s.logger.Info("user authenticated", slog.Int64("userID", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}
