// Package errors provides custom error types for broker integration errors.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors
var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownBroker      = errors.New("unknown broker")
	ErrOrderRejected      = errors.New("order rejected")
	ErrRateLimited        = errors.New("rate limited")
	ErrTimeout            = errors.New("operation timed out")
	ErrConfigInvalid      = errors.New("invalid configuration")
)

// AuthErrorCode classifies authentication failures.
type AuthErrorCode string

const (
	// AuthFailed covers bad credentials at login time.
	AuthFailed AuthErrorCode = "AUTH_FAILED"
	// AuthExpired marks a dead token detected on a post-login call, so the
	// caller prompts re-authorization instead of retrying blindly.
	AuthExpired AuthErrorCode = "AUTH_EXPIRED"
)

// AuthError represents an authentication failure.
type AuthError struct {
	Broker  string
	Code    AuthErrorCode
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s auth error [%s]: %s: %v", e.Broker, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s auth error [%s]: %s", e.Broker, e.Code, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError creates a new AuthError.
func NewAuthError(broker string, code AuthErrorCode, message string, err error) *AuthError {
	return &AuthError{Broker: broker, Code: code, Message: message, Err: err}
}

// IsAuthExpired reports whether err carries the AUTH_EXPIRED classification.
func IsAuthExpired(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae) && ae.Code == AuthExpired
}

// TransportError represents a network failure or timeout, wrapped with the
// broker name so callers can tell transports apart.
type TransportError struct {
	Broker    string
	Operation string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport error [%s]: %v", e.Broker, e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new TransportError.
func NewTransportError(broker, operation string, err error) *TransportError {
	return &TransportError{Broker: broker, Operation: operation, Err: err}
}

// BrokerError represents a business rejection carried in a broker's own
// error payload. It is translated into a failure response, never thrown
// across the adapter boundary.
type BrokerError struct {
	Broker  string
	Code    string
	Message string
}

func (e *BrokerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s broker error [%s]: %s", e.Broker, e.Code, e.Message)
	}
	return fmt.Sprintf("%s broker error: %s", e.Broker, e.Message)
}

// NewBrokerError creates a new BrokerError.
func NewBrokerError(broker, code, message string) *BrokerError {
	return &BrokerError{Broker: broker, Code: code, Message: message}
}

// ValidationError represents a malformed request caught before any network
// call, with one human-readable message per failing field.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// NewValidationError creates a new ValidationError.
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

// IsValidation reports whether err is a validation failure. The retry
// wrapper uses this to refuse to retry malformed requests.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
