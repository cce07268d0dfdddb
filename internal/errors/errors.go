package errors

import (
	"errors"
	"fmt"
)

// Common error types for the tracker client
var (
	// Session errors
	ErrUnauthenticated = errors.New("authentication required")
	ErrNoRefreshToken  = errors.New("no refresh token available")
	ErrRefreshFailed   = errors.New("failed to refresh token")

	// Transport errors
	ErrTransport       = errors.New("network error")
	ErrInvalidResponse = errors.New("invalid response")

	// Cache errors
	ErrNotFound = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join combines errors, ignoring nils
func Join(errs ...error) error {
	return errors.Join(errs...)
}
