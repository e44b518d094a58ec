package user

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/billing-service/internal/billing"
	"github.com/noah-isme/billing-service/internal/common"
)

// CreateInput captures payload for creating an account.
type CreateInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email,max=320"`
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// Service manages accounts.
type Service struct {
	Store    billing.Store
	Validate *validator.Validate
}

var defaultValidate = validator.New(validator.WithRequiredStructEnabled())

func (s *Service) validate() *validator.Validate {
	if s.Validate != nil {
		return s.Validate
	}
	return defaultValidate
}

// Create validates and stores a new user with an empty cart.
func (s *Service) Create(ctx context.Context, in CreateInput) (billing.User, error) {
	if s == nil || s.Store == nil {
		return billing.User{}, errors.New("user service not configured")
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate().Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]FieldError, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, FieldError{Field: strings.ToLower(fe.Field()), Rule: fe.Tag()})
			}
			return billing.User{}, &common.AppError{
				Code:       common.CodeValidation,
				Message:    "invalid user",
				HTTPStatus: http.StatusBadRequest,
				Err:        fmt.Errorf("%v: %w", err, billing.ErrValidation),
				Details:    fields,
			}
		}
		return billing.User{}, err
	}
	return s.Store.Users().Create(ctx, billing.User{Name: in.Name, Email: in.Email, Cart: []string{}})
}

// Get returns the user with id.
func (s *Service) Get(ctx context.Context, id string) (billing.User, error) {
	if s == nil || s.Store == nil {
		return billing.User{}, errors.New("user service not configured")
	}
	return s.Store.Users().Get(ctx, id)
}
