package mcp

import (
	"errors"
	"fmt"

	"github.com/mike-a-ellis/chat-memory-mcp/internal/memory"
)

// Error codes prefixed to tool error messages.
const (
	CodeNotFound     = "not_found"
	CodeForbidden    = "forbidden"
	CodeNoMessages   = "no_messages"
	CodeInvalidInput = "invalid_input"
	CodeInternal     = "internal_error"
)

// ErrorCode classifies a service error.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, memory.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, memory.ErrForbidden):
		return CodeForbidden
	case errors.Is(err, memory.ErrNoMessages):
		return CodeNoMessages
	case errors.Is(err, memory.ErrInvalidInput), errors.Is(err, memory.ErrEmptyQuery):
		return CodeInvalidInput
	default:
		return CodeInternal
	}
}

// toolError prefixes err with its code, e.g. "not_found: not found".
func toolError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", ErrorCode(err), err)
}
