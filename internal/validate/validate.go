// Package validate wraps go-playground/validator and turns its errors into
// the per-field message map the API returns:
//
//	{"title": ["must be at least 3 characters"], "email": ["must be a valid email address"]}
//
// Field names come from the json struct tag, so the keys match what the
// client sent.
package validate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/triforge/triforge-api/internal/apperror"
)

// Errors collects messages per field. The zero value is not usable; use
// make(Errors) or NewErrors.
type Errors map[string][]string

func NewErrors() Errors {
	return make(Errors)
}

// Add appends a message for field.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Err returns nil when no field failed, otherwise an apperror validation
// error carrying the whole map.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return apperror.Invalid(map[string][]string(e))
}

// Validator is safe for concurrent use once constructed.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator that reports fields by their json names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Struct validates s and records failures in errs.
func (v *Validator) Struct(s any, errs Errors) {
	err := v.v.Struct(s)
	if err == nil {
		return
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add("_", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), message(fe))
	}
}

// Var validates a single value against tag and records failures under field.
func (v *Validator) Var(errs Errors, field string, value any, tag string) {
	err := v.v.Var(value, tag)
	if err == nil {
		return
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add(field, err.Error())
		return
	}
	for _, fe := range fieldErrs {
		errs.Add(field, message(fe))
	}
}

// message maps a failed rule to the text shown to API clients.
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed the %q rule", fe.Tag())
	}
}
