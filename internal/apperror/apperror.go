// Package apperror defines the application error taxonomy and how each kind
// is rendered as an HTTP response.
package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
)

// ErrorType classifies an application error.
type ErrorType int

const (
	UnknownError ErrorType = iota
	// DatabaseError is a failure talking to a store.
	DatabaseError
	// ValidationError is a missing or malformed input field.
	ValidationError
	// BadRequestError is an undecodable request.
	BadRequestError
	// AuthError means the caller could not be authenticated (bad credentials, bad token).
	AuthError
	// UnauthorizedError means the caller is authenticated but may not act on the resource.
	UnauthorizedError
	NotFoundError
	ConflictError
	// ExternalServiceError is a failure of the identity provider or object storage.
	ExternalServiceError
	InternalError
)

// AppError carries a client-facing message and the underlying cause.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error type to an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case ValidationError, BadRequestError:
		return http.StatusBadRequest
	case AuthError:
		return http.StatusUnauthorized
	case UnauthorizedError:
		return http.StatusForbidden
	case NotFoundError:
		return http.StatusNotFound
	case ConflictError:
		return http.StatusConflict
	case ExternalServiceError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func New(errType ErrorType, message string, err error) *AppError {
	return &AppError{Type: errType, Message: message, Err: err}
}

func NewDatabaseError(message string, err error) *AppError {
	return New(DatabaseError, message, err)
}

func NewValidationError(message string, err error) *AppError {
	return New(ValidationError, message, err)
}

func NewBadRequestError(message string, err error) *AppError {
	return New(BadRequestError, message, err)
}

func NewAuthError(message string, err error) *AppError {
	return New(AuthError, message, err)
}

func NewUnauthorizedError(message string, err error) *AppError {
	return New(UnauthorizedError, message, err)
}

func NewNotFoundError(message string, err error) *AppError {
	return New(NotFoundError, message, err)
}

func NewConflictError(message string, err error) *AppError {
	return New(ConflictError, message, err)
}

func NewExternalServiceError(message string, err error) *AppError {
	return New(ExternalServiceError, message, err)
}

func NewInternalError(message string, err error) *AppError {
	return New(InternalError, message, err)
}

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToResponse exposes only the client-facing message.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message}
}

// FromError finds an *AppError anywhere in err's chain.
func FromError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func Is(err error, errType ErrorType) bool {
	appErr, ok := FromError(err)
	return ok && appErr.Type == errType
}

func IsNotFound(err error) bool { return Is(err, NotFoundError) }

func IsValidation(err error) bool { return Is(err, ValidationError) }

func IsAuth(err error) bool { return Is(err, AuthError) }

func IsUnauthorized(err error) bool { return Is(err, UnauthorizedError) }

func IsConflict(err error) bool { return Is(err, ConflictError) }

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// WriteError renders err as {"error": "..."}. Errors outside the taxonomy are
// logged and reported as a bare 500 so driver text never reaches clients.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := FromError(err)
	if !ok {
		appErr = NewInternalError("internal server error", err)
	}
	if appErr.StatusCode() >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, appErr)
	}
	WriteJSON(w, appErr.StatusCode(), appErr.ToResponse())
}
