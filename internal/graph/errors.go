package graph

import (
	"context"
	"errors"
	"log/slog"

	"github.com/graphcrm/graphcrm/internal/service"
)

// Error codes reported in GraphQL error extensions.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeInternal   = "INTERNAL_ERROR"
)

// Error is a resolver error carrying GraphQL extensions.
type Error struct {
	Message string
	Code    string
	Field   string
}

func (e *Error) Error() string {
	return e.Message
}

// Extensions implements gqlerrors.ExtendedError.
func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": e.Code}
	if e.Field != "" {
		ext["field"] = e.Field
	}
	return ext
}

func validationError(field, message string) *Error {
	return &Error{Message: message, Code: CodeValidation, Field: field}
}

// resolveError converts a service error into the error a client sees.
// Unexpected errors are logged and replaced with a generic message.
func (r *resolver) resolveError(ctx context.Context, op string, err error) error {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return validationError(ve.Field, ve.Message)
	case errors.Is(err, service.ErrCustomerNotFound),
		errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		return &Error{Message: err.Error(), Code: CodeNotFound}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &Error{Message: "request cancelled", Code: CodeInternal}
	}

	r.logger.ErrorContext(ctx, "resolver failed",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
	return &Error{Message: "internal server error", Code: CodeInternal}
}
