package protocol

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound        = errors.New("resource not found")
	ErrReportNotFound  = fmt.Errorf("%w: report", ErrNotFound)
	ErrSectionNotFound = fmt.Errorf("%w: section", ErrNotFound)

	// Ingest errors
	ErrNoSections        = errors.New("no sections found in input")
	ErrUnsupportedFormat = errors.New("unsupported input format")
)

// NewSectionNotFoundError reports a missing section by name.
func NewSectionNotFoundError(name string) error {
	return fmt.Errorf("%w: %q", ErrSectionNotFound, name)
}

// IsNotFoundError checks whether err is any of the not-found errors.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
