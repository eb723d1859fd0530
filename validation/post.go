// Package validation checks create-post payloads before they reach the service.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"omiit/models"

	"github.com/go-playground/validator/v10"
)

// PostValidator validates a full create payload.
type PostValidator interface {
	ValidatePost(in *models.PostInput) error
}

type postValidator struct {
	v *validator.Validate
}

func NewPostValidator() PostValidator {
	return &postValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

// ValidatePost returns a VALIDATION_ERROR AppError listing every failing field.
func (p *postValidator) ValidatePost(in *models.PostInput) error {
	if in == nil {
		return models.NewValidationError("Post payload is required", nil)
	}
	err := p.v.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return models.NewValidationError("Invalid post payload", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return models.NewValidationError(strings.Join(msgs, "; "), err)
}

func describe(fe validator.FieldError) string {
	field := jsonPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "url":
		return field + " must be an absolute URL"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// jsonPath turns "PostInput.ReadTime.Value" into "readTime.value".
func jsonPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToLower(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, ".")
}
