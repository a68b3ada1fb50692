package gdocai

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrDocumentTooLarge is returned before any remote call when a document
// exceeds the configured size limit.
var ErrDocumentTooLarge = errors.New("PDF too large")

// ServiceError wraps a failure reported by Document AI or by the client
// library talking to it. Its text is the underlying error's, unchanged.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Code returns the gRPC status code of the failure, or codes.Unknown.
func (e *ServiceError) Code() codes.Code {
	return status.Code(e.Err)
}

// Message returns the service's own message without the gRPC prefix.
func (e *ServiceError) Message() string {
	if s, ok := status.FromError(e.Err); ok {
		return s.Message()
	}
	return e.Err.Error()
}
