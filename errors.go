package goSession

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned when login credentials are
	// rejected upstream.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountExists is returned when registration hits an existing
	// account.
	ErrAccountExists = errors.New("account already exists")
	// ErrNetworkUnavailable is returned when the auth backend is
	// unreachable or an operation timed out.
	ErrNetworkUnavailable = errors.New("network unavailable")
	// ErrServerError is returned on 5xx-class or malformed upstream
	// responses.
	ErrServerError = errors.New("server error")
	// ErrSessionBusy is returned when an operation contradicts one
	// already in flight (login during refresh, concurrent logins).
	ErrSessionBusy = errors.New("session busy")
	// ErrRefreshRejected is returned when the refresh token is rejected
	// upstream. It always forces a full logout and is never retried.
	ErrRefreshRejected = errors.New("refresh token rejected")
	// ErrInvalidInput is returned by local validation before any network
	// call is made.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotAuthenticated is returned when an operation requires an
	// established session and there is none.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrManagerClosed is returned after Close.
	ErrManagerClosed = errors.New("session manager closed")
	// ErrUnknown wraps failures that fit no other taxonomy entry.
	ErrUnknown = errors.New("unknown auth failure")
)

// classifyAPIError maps an AuthAPI failure onto the public taxonomy,
// keeping the upstream detail as the wrapped message.
func classifyAPIError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %v", ErrUnknown, err)
	}

	switch apiErr.Kind {
	case KindInvalidCredentials:
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, apiErr.Detail)
	case KindAccountExists:
		return fmt.Errorf("%w: %s", ErrAccountExists, apiErr.Detail)
	case KindUnauthorized:
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, apiErr.Detail)
	case KindNetwork:
		return fmt.Errorf("%w: %s", ErrNetworkUnavailable, apiErr.Detail)
	case KindServer:
		return fmt.Errorf("%w: %s", ErrServerError, apiErr.Detail)
	default:
		return fmt.Errorf("%w: %s", ErrUnknown, apiErr.Detail)
	}
}

// retryableAPIError reports whether a failure is transient. Timeouts and
// network/server trouble are retryable; a rejected credential is not.
func retryableAPIError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Retryable {
		return true
	}
	switch apiErr.Kind {
	case KindNetwork, KindServer:
		return true
	default:
		return false
	}
}

// authFailure reports whether a failure means the presented token or
// credential was rejected, as opposed to the backend being unwell.
func authFailure(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Kind {
	case KindUnauthorized, KindInvalidCredentials:
		return !apiErr.Retryable
	default:
		return false
	}
}
