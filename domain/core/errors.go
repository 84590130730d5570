package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)
	ErrSectionNotFound = fmt.Errorf("%w: section", ErrNotFound)

	// Ingest errors
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrNoContent         = errors.New("document has no content")
)

// NewNotFoundError adds the concrete resource to ErrNotFound so that
// handlers can still match with errors.Is.
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}
