// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Storage errors.
var (
	// ErrStorage indicates the persistence layer is unreachable or returned
	// a malformed row. It aborts the triggering operation.
	ErrStorage = errors.New("storage error")
)

// Authorization errors.
var (
	// ErrNotAuthorized indicates the caller is not allowed to perform the
	// requested mutation on the registry.
	ErrNotAuthorized = errors.New("not authorized")
)

// Collaborator errors.
var (
	// ErrEmptyResponse indicates a collaborator returned no usable content.
	ErrEmptyResponse = errors.New("empty response")

	// ErrNoImage indicates the image API answered successfully but produced
	// no image, as distinct from a transport failure.
	ErrNoImage = errors.New("no image in response")

	// ErrRateLimited indicates rate limiting was triggered.
	ErrRateLimited = errors.New("rate limited")
)

// Is is a convenience wrapper around errors.Is, so callers checking
// sentinels from this package need no second errors import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
