package model

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput is returned for inputs that are rejected before any work is done.
var ErrInvalidInput = errors.New("invalid input")

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("edgetype", func(fl validator.FieldLevel) bool {
		return EdgeType(fl.Field().String()).IsValid()
	})
}

// ValidateStruct validates s by its struct tags.
// Failures wrap both ErrInvalidInput and the validator errors.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return nil
}

// ValidateLimit rejects negative limits.
func ValidateLimit(limit int) error {
	if err := validate.Var(limit, "gte=0"); err != nil {
		return fmt.Errorf("%w: limit must not be negative, got %d", ErrInvalidInput, limit)
	}
	return nil
}
