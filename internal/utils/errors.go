package utils

import (
	"errors"
	"fmt"

	"github.com/mirrorctl/mirrorctl/internal/types"
)

// Exit codes
const (
	ExitSuccess = 0
	// Usage errors
	ExitUsage = 1
	// Auth errors (10-19)
	ExitAuthRequired = 10
	ExitAuthInvalid  = 11
	// Sync errors (20-29)
	ExitSyncRejected    = 20
	ExitPollTimeout     = 21
	ExitPackageNotFound = 22
	// Network errors (30-39)
	ExitNetworkError    = 30
	ExitTimeout         = 31
	ExitRateLimited     = 32
	ExitInvalidResponse = 33
	// Unknown
	ExitUnknown = 99
)

// Error codes (tool-owned, stable)
const (
	ErrCodeInvalidArgument = "INVALID_ARGUMENT"
	ErrCodeAuthRequired    = "AUTH_REQUIRED"
	ErrCodeAuthInvalid     = "AUTH_INVALID"
	ErrCodeSyncRejected    = "SYNC_REJECTED"
	ErrCodePollTimeout     = "POLL_TIMEOUT"
	ErrCodePackageNotFound = "PACKAGE_NOT_FOUND"
	ErrCodeNetworkError    = "NETWORK_ERROR"
	ErrCodeTimeout         = "TIMEOUT"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeInvalidResponse = "INVALID_RESPONSE"
	ErrCodeCancelled       = "CANCELLED"
	ErrCodeUnknown         = "UNKNOWN"
)

// CLIErrorBuilder helps construct CLIError instances
type CLIErrorBuilder struct {
	err types.CLIError
}

// NewCLIError creates a new error builder
func NewCLIError(code, message string) *CLIErrorBuilder {
	return &CLIErrorBuilder{
		err: types.CLIError{
			Code:    code,
			Message: message,
		},
	}
}

func (b *CLIErrorBuilder) WithHTTPStatus(status int) *CLIErrorBuilder {
	b.err.HTTPStatus = status
	return b
}

func (b *CLIErrorBuilder) WithMirrorReason(reason string) *CLIErrorBuilder {
	b.err.MirrorReason = reason
	return b
}

func (b *CLIErrorBuilder) WithRetryable(retryable bool) *CLIErrorBuilder {
	b.err.Retryable = retryable
	return b
}

func (b *CLIErrorBuilder) WithContext(key string, value interface{}) *CLIErrorBuilder {
	if b.err.Context == nil {
		b.err.Context = make(map[string]interface{})
	}
	b.err.Context[key] = value
	return b
}

func (b *CLIErrorBuilder) Build() types.CLIError {
	return b.err
}

// GetExitCode returns the exit code for an error code
func GetExitCode(errorCode string) int {
	mapping := map[string]int{
		ErrCodeInvalidArgument: ExitUsage,
		ErrCodeAuthRequired:    ExitAuthRequired,
		ErrCodeAuthInvalid:     ExitAuthInvalid,
		ErrCodeSyncRejected:    ExitSyncRejected,
		ErrCodePollTimeout:     ExitPollTimeout,
		ErrCodePackageNotFound: ExitPackageNotFound,
		ErrCodeNetworkError:    ExitNetworkError,
		ErrCodeTimeout:         ExitTimeout,
		ErrCodeRateLimited:     ExitRateLimited,
		ErrCodeInvalidResponse: ExitInvalidResponse,
	}
	if code, ok := mapping[errorCode]; ok {
		return code
	}
	return ExitUnknown
}

// AppError is a custom error type that carries CLI error info
type AppError struct {
	CLIError types.CLIError
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.CLIError.Code, e.CLIError.Message)
}

// NewAppError creates an AppError from a CLIError
func NewAppError(cliErr types.CLIError) *AppError {
	return &AppError{CLIError: cliErr}
}

// ErrorCode extracts the stable error code from err, or ErrCodeUnknown
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.CLIError.Code
	}
	return ErrCodeUnknown
}

// ExitCodeFor maps any error to a process exit code
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	return GetExitCode(ErrorCode(err))
}
