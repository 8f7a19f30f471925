package auth

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jrsteele09/jobboard-auth/internal/errors"
	"github.com/jrsteele09/jobboard-auth/users"
)

// RegisterInput is the self-service registration payload.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,maxbytes=72"`
	Age      int    `json:"age" validate:"required,gt=0"`
	Gender   string `json:"gender" validate:"required"`
	Address  string `json:"address" validate:"required"`
}

// CreateInput is the administrative creation payload. Unlike registration, the
// caller picks the role and may attach a company.
type CreateInput struct {
	RegisterInput
	Role    string            `json:"role" validate:"required"`
	Company *users.CompanyRef `json:"company" validate:"omitempty"`
}

// LoginInput is the credentials payload of a login request. It is not validated:
// any malformed pair is simply rejected by the CredentialValidator.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// bcrypt refuses passwords longer than 72 bytes; max counts runes
	if err := v.RegisterValidation("maxbytes", maxBytes); err != nil {
		panic(err)
	}
	return v
}

func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// Validate checks a request payload against its validate tags. Failures wrap
// errors.ErrInvalidRequest.
func Validate(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describeField(fe))
	}
	return fmt.Errorf("%w: %s", errors.ErrInvalidRequest, strings.Join(msgs, "; "))
}

func describeField(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " must not be empty"
	case "email":
		return field + " must be a valid email"
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "maxbytes":
		return field + " must be at most " + fe.Param() + " bytes"
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
