// Package service contains the catalog's business logic: query resolution,
// mutation handling with authorization gating, and identity verification.
package service

import (
	"reflect"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/librisapp/libris-server/internal/errors"
)

// validate is a shared validator instance for request validation.
var validate = func() *validator.Validate {
	v := validator.New()
	// Use JSON tag names for field names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		// Remove any options (like omitempty, -)
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})
	return v
}()

// formatValidationError converts validator errors into domain errors that
// carry the offending field name.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if domainerrors.As(err, &validationErrs) {
		// Return first validation error as a domain error
		for _, e := range validationErrs {
			field := e.Field()
			switch e.Tag() {
			case "required":
				return domainerrors.InvalidInputf("%s is required", field).WithDetails(field)
			case "min":
				return domainerrors.InvalidInputf("%s must be at least %s", field, e.Param()).WithDetails(field)
			case "max":
				return domainerrors.InvalidInputf("%s exceeds maximum of %s", field, e.Param()).WithDetails(field)
			default:
				return domainerrors.InvalidInputf("%s is invalid", field).WithDetails(field)
			}
		}
	}
	return err
}
