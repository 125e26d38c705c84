package errors

import (
	"errors"
	"fmt"
)

// Common error types for the Career Compass client
var (
	// Authentication errors
	ErrAuthRequired   = errors.New("authentication required")
	ErrSessionExpired = errors.New("session expired")
	ErrLoginFailed    = errors.New("login failed")

	// Token errors
	ErrNoAccessToken   = errors.New("no access token stored")
	ErrNoRefreshToken  = errors.New("no refresh token stored")
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenCiphertext = errors.New("invalid token ciphertext")

	// Transport errors
	ErrBadResponse = errors.New("unexpected server response")
	ErrNotFound    = errors.New("not found")

	// Cache errors
	ErrCacheMiss = errors.New("cache miss")

	// General errors
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
