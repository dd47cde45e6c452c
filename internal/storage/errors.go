package storage

import "errors"

var (
	ErrQdrantUnreachable = errors.New("qdrant server unreachable")
	ErrNotFound          = errors.New("record not found")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
