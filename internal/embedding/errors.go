package embedding

import "errors"

var (
	// ErrUnavailable is returned by a backend factory when the credentials
	// for the requested tier are missing.
	ErrUnavailable = errors.New("embedding tier unavailable")

	// ErrEmptyResponse is returned when a backend answers without vectors.
	ErrEmptyResponse = errors.New("embedding backend returned no vectors")
)
