package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"

	"github.com/melee45/queueing-system/internal/domain"
)

// DomainError standardizes application errors at the transport edge.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic and domain sentinel errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	switch {
	case errors.Is(err, domain.ErrCategoryNotFound):
		return NewDomainError("NOT_FOUND", "category not found", http.StatusNotFound, nil)
	case errors.Is(err, domain.ErrTicketNotFound):
		return NewDomainError("NOT_FOUND", "ticket not found", http.StatusNotFound, nil)
	case errors.Is(err, domain.ErrInvalidTransition):
		return NewDomainError("INVALID_TRANSITION", "status change violates the ticket lifecycle", http.StatusConflict, nil)
	case errors.Is(err, domain.ErrUnavailable):
		return &DomainError{
			Code:       "UNAVAILABLE",
			Message:    "backend temporarily unavailable, retry later",
			HTTPStatus: http.StatusServiceUnavailable,
			Err:        err,
		}
	case errors.Is(err, domain.ErrConflict):
		// Should be unreachable: the allocator prevents duplicate numbers
		// and the service already retried once.
		return &DomainError{
			Code:       "CONFLICT",
			Message:    "internal server error",
			HTTPStatus: http.StatusInternalServerError,
			Err:        err,
		}
	case errors.Is(err, pgx.ErrNoRows):
		return NewDomainError("NOT_FOUND", "resource not found", http.StatusNotFound, nil)
	}

	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
