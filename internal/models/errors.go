package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeNotFound       = "NOT_FOUND"
	CodeUnavailable    = "UNAVAILABLE"
	CodeInternal       = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error.
type AppError struct {
	Code    string
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

// Predefined error constructors

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewAuthenticationError marks a credential rejection or an unusable token.
// The session layer treats it differently from plain Unauthorized: the login
// form displays it, while token problems silently reset the session.
func NewAuthenticationError(message string) *AppError {
	return &AppError{
		Code:    CodeAuthentication,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

// NewUnavailableError wraps a transport failure reaching the remote API.
func NewUnavailableError(err error) *AppError {
	return &AppError{
		Code:    CodeUnavailable,
		Message: "Remote API unavailable",
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal error",
		Err:     err,
	}
}

// IsCode reports whether err is (or wraps) an AppError with the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsAuthenticationError reports whether err is a credential/token rejection.
func IsAuthenticationError(err error) bool {
	return IsCode(err, CodeAuthentication)
}

// IsUnavailableError reports whether err is a transport failure; callers use
// this to decide whether an offline snapshot fallback applies.
func IsUnavailableError(err error) bool {
	return IsCode(err, CodeUnavailable)
}

// StatusForError maps an application error to an HTTP status for the
// gateway surface.
func StatusForError(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeValidation:
		return fiber.StatusBadRequest
	case CodeAuthentication:
		return fiber.StatusUnauthorized
	case CodeUnauthorized:
		return fiber.StatusForbidden
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeUnavailable:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
