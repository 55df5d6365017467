package domain

import "errors"

var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrTicketNotFound    = errors.New("ticket not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("ticket number conflict")
	ErrUnavailable       = errors.New("backend unavailable")
)
