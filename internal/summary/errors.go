package summary

import (
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
)

// ErrUnconfigured is returned by a CompleterFactory when the summary
// backend has no usable credentials. It ends the candidate loop.
var ErrUnconfigured = errors.New("summary backend not configured")

// IsFatal reports whether err means no further candidate can succeed:
// rejected credentials or an unusable configuration.
func IsFatal(err error) bool {
	if errors.Is(err, ErrUnconfigured) {
		return true
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// IsModelNotFound reports whether err says the requested model does not
// exist. Such errors move on to the next candidate.
func IsModelNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "model") {
		return false
	}
	for _, marker := range []string{"not exist", "not found", "invalid", "unknown"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
