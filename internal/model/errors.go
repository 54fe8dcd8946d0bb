package model

import (
	"errors"
	"fmt"
	"net/http"
)

// InputError is a user-correctable request problem (bad or missing address).
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

// NewInputError formats an InputError.
func NewInputError(format string, args ...any) *InputError {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// ConfigError is an operator-fixable problem: missing signer key, malformed
// schema identifier, unknown network.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration: %s: %v", e.Msg, e.Err)
	}
	return "configuration: " + e.Msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError wraps cause (which may be nil) as a ConfigError.
func NewConfigError(msg string, cause error) *ConfigError {
	return &ConfigError{Msg: msg, Err: cause}
}

// ConflictError reports that the identity group already holds a claim issued
// to a different address.
type ConflictError struct {
	IdempotencyKey string
	ClaimedBy      string
}

func (e *ConflictError) Error() string {
	return "a discount has already been claimed by another linked address"
}

// UpstreamError reports a failure of an external collaborator: attestation
// provider, identity provider or claim store.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NewUpstreamError wraps err as an UpstreamError for operation op.
func NewUpstreamError(op string, err error) *UpstreamError {
	return &UpstreamError{Op: op, Err: err}
}

// StatusCode maps an error from the claim flow to an HTTP status.
func StatusCode(err error) int {
	var (
		inputErr    *InputError
		conflictErr *ConflictError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &inputErr):
		return http.StatusBadRequest
	case errors.As(err, &conflictErr):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show a caller. Internal failures
// are reduced to a generic text.
func PublicMessage(err error) string {
	var (
		inputErr    *InputError
		conflictErr *ConflictError
	)
	switch {
	case errors.As(err, &inputErr):
		return inputErr.Error()
	case errors.As(err, &conflictErr):
		return conflictErr.Error()
	default:
		return "internal server error"
	}
}
