package memory

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrNoMessages   = errors.New("no messages to summarize")
	ErrEmptyQuery   = errors.New("query is required")
)
