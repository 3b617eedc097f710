package errs

import "errors"

var (
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrEmptyMessage    = errors.New("empty message")
	ErrBlankAnswer     = errors.New("operator answer is empty")
	ErrInvalidRole     = errors.New("invalid transcript role")
	ErrEmptyText       = errors.New("transcript text is empty")
	ErrSessionRequired = errors.New("session id is required")
	ErrInvalidStatus   = errors.New("invalid ticket status filter")
)
