package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/triforge/triforge-api/internal/apperror"
	"github.com/triforge/triforge-api/internal/model"
	"github.com/triforge/triforge-api/internal/optional"
	"github.com/triforge/triforge-api/internal/repository"
	"github.com/triforge/triforge-api/internal/sanitize"
	"github.com/triforge/triforge-api/internal/validate"
)

// CreateContactInput is the public contact form. New messages are always
// unread; an isRead key in the body is dropped on decode.
type CreateContactInput struct {
	Name     string  `json:"name"     validate:"required,min=2,max=100"`
	Email    string  `json:"email"    validate:"required,email,max=254"`
	WhatsApp *string `json:"whatsapp" validate:"omitempty,max=32"`
	Message  string  `json:"message"  validate:"required,min=10,max=5000"`
}

// UpdateContactInput is the body of PUT /api/contact/{id}. "whatsapp": null
// clears the handle; isRead:false is applied like any other value.
type UpdateContactInput struct {
	Name     optional.Field[string] `json:"name"`
	Email    optional.Field[string] `json:"email"`
	WhatsApp optional.Field[string] `json:"whatsapp"`
	Message  optional.Field[string] `json:"message"`
	IsRead   optional.Field[bool]   `json:"isRead"`
}

func (in UpdateContactInput) empty() bool {
	return !in.Name.Set && !in.Email.Set && !in.WhatsApp.Set && !in.Message.Set && !in.IsRead.Set
}

// ContactService manages the contact-message inbox. Text is stripped of
// markup before it is validated and stored.
type ContactService struct {
	repo      repository.ContactRepository
	validator *validate.Validator
	logger    *slog.Logger
}

func NewContactService(repo repository.ContactRepository, validator *validate.Validator, logger *slog.Logger) *ContactService {
	return &ContactService{repo: repo, validator: validator, logger: logger}
}

func (s *ContactService) Create(ctx context.Context, in CreateContactInput) (*model.ContactMessage, error) {
	in.Name = sanitize.Plain(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.WhatsApp = blankToNil(sanitize.PlainPtr(in.WhatsApp))
	in.Message = sanitize.Plain(in.Message)

	errs := validate.NewErrors()
	s.validator.Struct(in, errs)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	msg := &model.ContactMessage{
		Name:     in.Name,
		Email:    in.Email,
		WhatsApp: in.WhatsApp,
		Message:  in.Message,
		IsRead:   false,
	}
	if err := s.repo.CreateContact(ctx, msg); err != nil {
		s.logger.Error("failed to store contact message", slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating contact message: %w", err)
	}

	s.logger.Info("contact message received", slog.Int64("id", msg.ID))
	return msg, nil
}

func (s *ContactService) GetByID(ctx context.Context, id int64) (*model.ContactMessage, error) {
	return s.repo.GetContactByID(ctx, id)
}

// List returns messages newest first.
func (s *ContactService) List(ctx context.Context, limit, offset int) ([]model.ContactMessage, error) {
	messages, err := s.repo.ListContacts(ctx, listOptions(limit, offset))
	if err != nil {
		s.logger.Error("failed to list contact messages", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing contact messages: %w", err)
	}
	return messages, nil
}

// Update applies the present fields of in. A missing message is reported
// before an update with no fields, which is a validation error.
func (s *ContactService) Update(ctx context.Context, id int64, in UpdateContactInput) (*model.ContactMessage, error) {
	msg, err := s.repo.GetContactByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.empty() {
		return nil, apperror.BadRequest("no fields to update")
	}

	errs := validate.NewErrors()

	if requireNonNull(errs, "name", in.Name.Set, in.Name.Null) {
		msg.Name = sanitize.Plain(in.Name.Value)
		s.validator.Var(errs, "name", msg.Name, "required,min=2,max=100")
	}
	if requireNonNull(errs, "email", in.Email.Set, in.Email.Null) {
		msg.Email = normalizeEmail(in.Email.Value)
		s.validator.Var(errs, "email", msg.Email, "required,email,max=254")
	}
	if in.WhatsApp.Set {
		msg.WhatsApp = nil
		if v, ok := in.WhatsApp.Get(); ok {
			msg.WhatsApp = blankToNil(sanitize.PlainPtr(&v))
		}
		if msg.WhatsApp != nil {
			s.validator.Var(errs, "whatsapp", *msg.WhatsApp, "max=32")
		}
	}
	if requireNonNull(errs, "message", in.Message.Set, in.Message.Null) {
		msg.Message = sanitize.Plain(in.Message.Value)
		s.validator.Var(errs, "message", msg.Message, "required,min=10,max=5000")
	}
	if requireNonNull(errs, "isRead", in.IsRead.Set, in.IsRead.Null) {
		msg.IsRead = in.IsRead.Value
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateContact(ctx, msg); err != nil {
		logFailure(s.logger, "failed to update contact message", err, slog.Int64("id", id))
		return nil, fmt.Errorf("updating contact message: %w", err)
	}

	s.logger.Info("contact message updated", slog.Int64("id", id), slog.Bool("isRead", msg.IsRead))
	return msg, nil
}

func (s *ContactService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteContact(ctx, id); err != nil {
		return err
	}
	s.logger.Info("contact message deleted", slog.Int64("id", id))
	return nil
}

func blankToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
