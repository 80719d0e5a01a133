// Package validate wraps go-playground/validator for request-body schema
// validation. Handlers run it before any service is invoked; a failure
// short-circuits with a 400 carrying one message per offending field.
package validate

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"

	"github.com/wtjandra96/modern-webapp-sub000/internal/apperror"
)

// Validator validates request structs against their `validate` tags and
// converts failures into the domain error taxonomy.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for our requests.
func New() *Validator {
	v := validator.New()

	// Report fields by their JSON names, not Go struct names, so error
	// details line up with what the client actually sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		for i := 0; i < len(name); i++ {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})

	return &Validator{v: v}
}

// Validate checks a request struct. On failure it returns an
// apperror.ErrValidation with per-field details; nil on success.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	details := make(map[string]string, len(validationErrs))
	for _, e := range validationErrs {
		details[e.Field()] = friendlyMessage(e)
	}

	return apperror.ValidationDetails(details)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "hexcolor":
		return "must be a hex color like #fc5c65"
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}
