package service

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not found")
	ErrInvalidMessage = errors.New("invalid message")
	ErrInvalidRequest = errors.New("invalid request")
	ErrConfiguration  = errors.New("configuration error")
	ErrQuotaExceeded  = errors.New("document quota exceeded")
	ErrRateLimited    = errors.New("rate limit exceeded")
)

// ServiceError is an upstream failure. Message is short and safe to show
// to a client; raw upstream bodies never go into it.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("ai service error (status %d): %s", e.Status, e.Message)
}

const defaultServiceErrorMessage = "AI service error"

// ErrorStatus maps an error from this package to an HTTP status and a short
// client-facing message.
func ErrorStatus(err error) (int, string) {
	var svcErr *ServiceError
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, ErrInvalidMessage), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrQuotaExceeded):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "Too many requests"
	case errors.Is(err, ErrConfiguration):
		return http.StatusInternalServerError, "Configuration error"
	case errors.As(err, &svcErr):
		return http.StatusInternalServerError, svcErr.Message
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}
