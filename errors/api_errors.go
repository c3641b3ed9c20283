package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors used across service boundaries. Handlers map these onto
// HTTP status codes; everything else is treated as a storage/server failure.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
	ErrEmailTaken         = errors.New("email address already registered")
	ErrNotFound           = errors.New("resource not found")
)

// APIError is the JSON error body returned by every handler.
type APIError struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Error codes surfaced to clients.
const (
	InvalidRequest     = "invalid_request"
	InvalidCredentials = "invalid_credentials"
	Unauthorized       = "unauthorized"
	NotFound           = "not_found"
	Conflict           = "conflict"
	TooManyAttempts    = "too_many_attempts"
	ServerError        = "server_error"
)

func NewInvalidRequest(description string) *APIError {
	return &APIError{Code: InvalidRequest, Description: description}
}

// NewInvalidCredentials deliberately carries a fixed description: the response
// must not distinguish "no such user" from "wrong password".
func NewInvalidCredentials() *APIError {
	return &APIError{Code: InvalidCredentials, Description: "invalid email or password"}
}

func NewUnauthorized(description string) *APIError {
	return &APIError{Code: Unauthorized, Description: description}
}

func NewNotFound(description string) *APIError {
	return &APIError{Code: NotFound, Description: description}
}

func NewConflict(description string) *APIError {
	return &APIError{Code: Conflict, Description: description}
}

func NewTooManyAttempts() *APIError {
	return &APIError{Code: TooManyAttempts, Description: "too many failed login attempts, retry later"}
}

func NewServerError(description string) *APIError {
	return &APIError{Code: ServerError, Description: description}
}
