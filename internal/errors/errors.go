package errors

import (
	"errors"
	"fmt"
)

// Common error types for the auth gate
var (
	// Login errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPolicyRejection    = errors.New("login request rejected")
	ErrEmptyCredentials   = errors.New("username or password empty")
	ErrPasswordTooLong    = errors.New("password longer than 72 bytes")
	ErrMasqueradeDenied   = errors.New("no open mask for this operator")

	// Credential store errors
	ErrUserNotFound  = errors.New("user not found")
	ErrLoginNotFound = errors.New("login not found")

	// Session errors
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionExpired    = errors.New("session expired")
	ErrSessionNotStarted = errors.New("session not started")

	// Configuration errors
	ErrUnknownHashScheme = errors.New("unknown hash scheme")
	ErrInvalidConfig     = errors.New("invalid configuration")

	// General errors
	ErrNotFound    = errors.New("not found")
	ErrInternal    = errors.New("internal error")
	ErrUnsupported = errors.New("unsupported operation")
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
