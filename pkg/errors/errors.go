// Package errors provides common domain error types for the recap pipeline.
//
// This package defines sentinel errors for common domain conditions like "not
// found" or "unsupported media" that can be used across all packages. Using
// typed errors enables consistent error handling patterns with errors.Is()
// checks.
//
// Usage:
//
//	import rcerrors "github.com/otherjamesbrown/recap-cli/pkg/errors"
//
//	// Return a domain error
//	return nil, rcerrors.ErrNotFound
//
//	// Check for domain errors
//	if rcerrors.IsNotFound(err) {
//	    // handle not found case
//	}
package errors

import "errors"

// Domain errors - common sentinel errors for domain conditions.
var (
	// ErrNotFound indicates the requested remote resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates invalid input or validation failure.
	ErrValidation = errors.New("validation error")

	// ErrUnauthorized indicates the request lacks valid authentication.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidLocator indicates a repository locator could not be parsed.
	ErrInvalidLocator = errors.New("invalid repository locator")

	// ErrUnsupportedMedia indicates an input media kind the pipeline cannot
	// normalize.
	ErrUnsupportedMedia = errors.New("unsupported media format")

	// ErrNoRecord indicates no analysis record exists in the session yet.
	ErrNoRecord = errors.New("no analysis record: run 'recap process' first")
)

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnauthorized reports whether any error in err's chain is ErrUnauthorized.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsInvalidLocator reports whether any error in err's chain is ErrInvalidLocator.
func IsInvalidLocator(err error) bool {
	return errors.Is(err, ErrInvalidLocator)
}

// IsUnsupportedMedia reports whether any error in err's chain is ErrUnsupportedMedia.
func IsUnsupportedMedia(err error) bool {
	return errors.Is(err, ErrUnsupportedMedia)
}
