package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/preflight/internal/content"
	"github.com/jonathan/preflight/internal/schemas"
	"github.com/jonathan/preflight/internal/settings"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrStreamingUnsupported indicates the response writer cannot flush.
var ErrStreamingUnsupported = errors.New("streaming not supported")

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation *ErrValidation
		schemaErr  *schemas.ValidationError
		fieldErrs  validator.ValidationErrors
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &schemaErr), errors.As(err, &fieldErrs):
		return http.StatusBadRequest
	case errors.Is(err, settings.ErrNotFound), errors.Is(err, content.ErrDocumentNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// validationError converts validator failures into an ErrValidation naming
// the first failing field.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ErrValidation{Field: fe.Namespace(), Message: fmt.Sprintf("failed on '%s'", fe.Tag())}
	}
	return &ErrValidation{Field: "body", Message: err.Error()}
}
