package errors

import (
	"errors"
	"fmt"
)

// Common error types for the pass service
var (
	// Pass token errors
	ErrMalformedToken   = errors.New("malformed token")
	ErrBadSignature     = errors.New("bad signature")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenRevoked     = errors.New("token revoked")
	ErrIncompleteClaim  = errors.New("incomplete claim")
	ErrMissingSecret    = errors.New("missing signing secret")

	// Checkout creation errors
	ErrInvalidReturnPath      = errors.New("invalid return path")
	ErrUnknownTier            = errors.New("unknown tier")
	ErrCheckoutCreationFailed = errors.New("checkout creation failed")

	// Checkout completion errors
	ErrMissingSession      = errors.New("missing session")
	ErrProviderUnreachable = errors.New("provider unreachable")
	ErrNotPaid             = errors.New("not paid")

	// Presence errors
	ErrMissingSessionID = errors.New("missing session id")
	ErrStoreUnavailable = errors.New("store unavailable")

	// General errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternal       = errors.New("internal error")
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
