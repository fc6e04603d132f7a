// Package errors provides structured error handling for walletgate.
// It defines the negotiation error taxonomy, exit codes, and helpers for
// attaching context, details, and suggestions to errors.
//
//nolint:revive // Package name intentionally shadows stdlib for domain-specific error handling
package errors

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Exit codes returned by the walletgate CLI.
const (
	ExitSuccess  = 0 // Successful execution
	ExitGeneral  = 1 // General failure, including failed connections
	ExitInput    = 2 // Invalid input or configuration
	ExitRejected = 3 // The user declined the wallet prompt
	ExitNotFound = 4 // No wallet or no session to act on
	ExitBusy     = 5 // Another connection attempt is in flight
)

// GateError is the structured error type for walletgate.
type GateError struct {
	Code       string            // Machine-readable error code
	Message    string            // Human-readable message
	Details    map[string]string // Additional context
	Suggestion string            // Actionable suggestion for user
	Cause      error             // Underlying error
	ExitCode   int               // Exit code for CLI
}

func (e *GateError) Error() string {
	msg := e.Message

	for _, k := range slices.Sorted(maps.Keys(e.Details)) {
		msg = fmt.Sprintf("%s (%s: %s)", msg, k, e.Details[k])
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *GateError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a GateError with the same code.
func (e *GateError) Is(target error) bool {
	var t *GateError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors. Provider-originated failures are always translated into
// one of these before they leave the negotiator.
var (
	ErrGeneral = &GateError{
		Code:     "GENERAL_ERROR",
		Message:  "an error occurred",
		ExitCode: ExitGeneral,
	}

	ErrInvalidInput = &GateError{
		Code:     "INVALID_INPUT",
		Message:  "invalid input",
		ExitCode: ExitInput,
	}

	ErrInvalidFormat = &GateError{
		Code:     "INVALID_FORMAT",
		Message:  "invalid format",
		ExitCode: ExitInput,
	}

	// ErrProviderAbsent marks a configured binding that is not present in the
	// environment. It is expected and never shown to the user.
	ErrProviderAbsent = &GateError{
		Code:     "PROVIDER_ABSENT",
		Message:  "wallet provider not present",
		ExitCode: ExitNotFound,
	}

	// ErrPermissionCheckFailed marks a provider that failed a non-prompting
	// permission or account check during passive reconnection.
	ErrPermissionCheckFailed = &GateError{
		Code:     "PERMISSION_CHECK_FAILED",
		Message:  "wallet permission check failed",
		ExitCode: ExitGeneral,
	}

	ErrUserRejected = &GateError{
		Code:       "USER_REJECTED",
		Message:    "wallet connection was rejected by the user",
		Suggestion: "Approve the connection request in your wallet to continue.",
		ExitCode:   ExitRejected,
	}

	ErrConnectionFailed = &GateError{
		Code:     "CONNECTION_FAILED",
		Message:  "wallet connection failed",
		ExitCode: ExitGeneral,
	}

	ErrNoWalletFound = &GateError{
		Code:     "NO_WALLET_FOUND",
		Message:  "no supported wallet found",
		ExitCode: ExitNotFound,
	}

	ErrConnectInProgress = &GateError{
		Code:     "CONNECT_IN_PROGRESS",
		Message:  "a wallet connection attempt is already in progress",
		ExitCode: ExitBusy,
	}

	ErrNotConnected = &GateError{
		Code:     "NOT_CONNECTED",
		Message:  "no wallet session is connected",
		ExitCode: ExitNotFound,
	}

	ErrPromptTimeout = &GateError{
		Code:     "PROMPT_TIMEOUT",
		Message:  "timed out waiting for the wallet prompt",
		ExitCode: ExitGeneral,
	}

	ErrInvalidAccount = &GateError{
		Code:     "INVALID_ACCOUNT",
		Message:  "invalid account identifier",
		ExitCode: ExitInput,
	}

	ErrUnknownProvider = &GateError{
		Code:     "UNKNOWN_PROVIDER",
		Message:  "unknown wallet provider",
		ExitCode: ExitInput,
	}

	ErrConfigNotFound = &GateError{
		Code:     "CONFIG_NOT_FOUND",
		Message:  "configuration file not found",
		ExitCode: ExitNotFound,
	}

	ErrConfigInvalid = &GateError{
		Code:     "CONFIG_INVALID",
		Message:  "configuration is invalid",
		ExitCode: ExitInput,
	}

	ErrUnknownConfigKey = &GateError{
		Code:     "UNKNOWN_CONFIG_KEY",
		Message:  "unknown config key",
		ExitCode: ExitInput,
	}
)

// New creates a new GateError with the given code and message.
func New(code, message string) *GateError {
	return &GateError{
		Code:     code,
		Message:  message,
		ExitCode: ExitGeneral,
	}
}

// derive copies the classification of err into a new GateError. Plain errors
// become GENERAL_ERROR with err as the cause and classified reports false.
func derive(err error) (out *GateError, classified bool) {
	var ge *GateError
	if errors.As(err, &ge) {
		return &GateError{
			Code:       ge.Code,
			Message:    ge.Message,
			Details:    ge.Details,
			Suggestion: ge.Suggestion,
			Cause:      ge.Cause,
			ExitCode:   ge.ExitCode,
		}, true
	}
	return &GateError{
		Code:     ErrGeneral.Code,
		Message:  err.Error(),
		Cause:    err,
		ExitCode: ExitGeneral,
	}, false
}

// Wrap wraps an error with additional context.
func Wrap(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)
	out, classified := derive(err)
	if !classified {
		out.Message = msg
		return out
	}
	out.Message = fmt.Sprintf("%s: %s", msg, out.Message)
	out.Cause = err
	return out
}

// WithCause returns a copy of the sentinel err with cause attached.
func WithCause(err, cause error) error {
	if err == nil {
		return nil
	}
	out, _ := derive(err)
	out.Cause = cause
	return out
}

// WithDetails adds details to an error.
func WithDetails(err error, details map[string]string) error {
	if err == nil {
		return nil
	}
	out, _ := derive(err)
	out.Details = details
	return out
}

// WithSuggestion adds a suggestion to an error.
func WithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	out, _ := derive(err)
	out.Suggestion = suggestion
	return out
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ge *GateError
	if errors.As(err, &ge) {
		return ge.ExitCode
	}

	return ExitGeneral
}

// Code returns the error code for an error.
func Code(err error) string {
	var ge *GateError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ErrGeneral.Code
}

// Suggestion returns the suggestion attached to err, if any.
func Suggestion(err error) string {
	var ge *GateError
	if errors.As(err, &ge) {
		return ge.Suggestion
	}
	return ""
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
