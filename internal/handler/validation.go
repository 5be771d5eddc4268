package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// formatValidationError converts the first validator error into a client-facing message.
// Field names are the JSON names registered by internal/validator.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "invalid request"
	}

	fe := ve[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return "invalid request: " + field + " is required"
	case "notblank":
		return "invalid request: " + field + " cannot be whitespace only"
	case "max":
		return "invalid request: " + field + " exceeds maximum length of " + fe.Param()
	case "gte":
		return "invalid request: " + field + " must be at least " + fe.Param()
	case "lte":
		return "invalid request: " + field + " must be at most " + fe.Param()
	case "oneof":
		return "invalid request: " + field + " must be one of " + fe.Param()
	case "servicetype":
		return "invalid request: " + field + " must be one of hostel readingRoom canteen"
	default:
		return "invalid request: " + field + " is invalid"
	}
}
