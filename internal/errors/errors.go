package errors

import (
	"errors"
	"fmt"
)

// Common error types for the notes client
var (
	// Session errors
	ErrNotAuthenticated        = errors.New("not authenticated")
	ErrPermissionDenied        = errors.New("permission denied")
	ErrMalformedPersistedState = errors.New("malformed persisted session state")

	// Plan errors
	ErrQuotaExceeded = errors.New("free plan note limit reached")

	// Input errors
	ErrInvalidRole  = errors.New("invalid role")
	ErrInvalidEmail = errors.New("invalid email")

	// General errors
	ErrNotFound = errors.New("not found")
)

// AuthError is returned when the remote API rejects a login.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// InviteError is returned when the remote API rejects an invitation.
type InviteError struct {
	Reason string
}

func (e *InviteError) Error() string {
	return e.Reason
}

// RemoteError describes a non-success response from the remote API.
type RemoteError struct {
	Op         string // Operation that failed, e.g. "list notes"
	StatusCode int    // HTTP status, 0 when the request never completed
	Message    string // Server supplied message or a fixed default per operation
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
}

// Message returns the human readable text of err, preferring the message
// carried by the typed errors over the wrapped chain.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	var inviteErr *InviteError
	if errors.As(err, &inviteErr) {
		return inviteErr.Reason
	}
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Message
	}
	return err.Error()
}

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
