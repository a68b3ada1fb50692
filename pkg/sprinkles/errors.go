package sprinkles

import (
	"errors"

	"github.com/willangley/pdf-sprinkles/pkg/gdocai"
)

var (
	// ErrInputTooLarge is returned for uploads over the configured maximum.
	ErrInputTooLarge = gdocai.ErrDocumentTooLarge
	// ErrMalformedInput is the only thing callers learn about a failed probe.
	ErrMalformedInput = errors.New("could not read uploaded PDF")
	// ErrOutputTooLarge is returned when the generated PDF exceeds the configured maximum.
	ErrOutputTooLarge = errors.New("output PDF too large")
)

// MalformedInputError reports that the geometry probe could not read the
// upload. Its message never includes the cause, which may describe how a
// crafted file affected the parser.
type MalformedInputError struct {
	cause error
}

// NewMalformedInputError wraps a probe failure.
func NewMalformedInputError(cause error) *MalformedInputError {
	return &MalformedInputError{cause: cause}
}

func (e *MalformedInputError) Error() string {
	return ErrMalformedInput.Error()
}

// Is makes errors.Is(err, ErrMalformedInput) hold.
func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

// Unwrap returns the underlying probe failure.
func (e *MalformedInputError) Unwrap() error {
	return e.cause
}

// Cause returns the underlying probe failure for logs and debug responses.
func (e *MalformedInputError) Cause() error {
	return e.cause
}

// Category is a stable, user-facing error class.
type Category string

const (
	CategoryTooLarge       Category = "too_large"
	CategoryMalformedInput Category = "malformed_input"
	CategoryServiceError   Category = "service_error"
	CategoryOutputTooLarge Category = "output_too_large"
	CategoryInternal       Category = "internal"
)

// Classify maps an error returned by Convert to its category.
// A nil error has no category.
func Classify(err error) Category {
	var malformed *MalformedInputError
	var service *gdocai.ServiceError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInputTooLarge):
		return CategoryTooLarge
	case errors.As(err, &malformed):
		return CategoryMalformedInput
	case errors.As(err, &service):
		return CategoryServiceError
	case errors.Is(err, ErrOutputTooLarge):
		return CategoryOutputTooLarge
	default:
		return CategoryInternal
	}
}
