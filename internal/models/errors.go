package models

import (
	"errors"
	"fmt"
)

var (
	ErrFoodNotFound     = errors.New("food not found")
	ErrMealPlanNotFound = errors.New("meal plan not found")
)

// ValidationError rejects user input before anything is written. Message is
// meant to be shown to the user as-is.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err (or anything it wraps) is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
