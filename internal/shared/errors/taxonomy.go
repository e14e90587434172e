package errors

import (
	"errors"
	"net/http"
)

// Failure kinds shared by the gateway, the domain services, and the HTTP surface.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("authentication failed")
	ErrForbidden    = errors.New("permission denied")
	ErrNotFound     = errors.New("resource not found")
	ErrConflict     = errors.New("state changed on the server")
	ErrGateway      = errors.New("order service request failed")
	ErrDecode       = errors.New("malformed response body")
)

// ValidationError reports a form problem detected locally; it never reaches the network.
type ValidationError struct {
	Message string
}

// Invalid builds a ValidationError with a user-facing message.
func Invalid(message string) error {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// RemoteError describes a non-2xx answer from the order service.
type RemoteError struct {
	Kind       error
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *RemoteError) Unwrap() error { return e.Kind }

// KindForStatus classifies an HTTP status returned by the order service.
func KindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	default:
		return ErrGateway
	}
}

// StatusCode returns the order service status carried by err, or zero.
func StatusCode(err error) int {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.StatusCode
	}
	return 0
}

// ProblemFor maps the failure taxonomy onto problem documents. It satisfies ErrorMapper.
func ProblemFor(err error) (ProblemDetail, bool) {
	if err == nil {
		return ProblemDetail{}, false
	}
	var base ProblemDetail
	switch {
	case errors.Is(err, ErrInvalidInput):
		base = ProblemValidation
	case errors.Is(err, ErrUnauthorized):
		base = ProblemUnauthorized
	case errors.Is(err, ErrForbidden):
		base = ProblemForbidden
	case errors.Is(err, ErrNotFound):
		base = ProblemNotFound
	case errors.Is(err, ErrConflict):
		base = ProblemConflict
	case errors.Is(err, ErrGateway), errors.Is(err, ErrDecode):
		base = ProblemBadGateway
	default:
		return ProblemDetail{}, false
	}
	problem := base.WithDetail(err.Error())
	if status := StatusCode(err); status != 0 {
		problem = problem.WithExtension("upstreamStatus", status)
	}
	return problem, true
}
