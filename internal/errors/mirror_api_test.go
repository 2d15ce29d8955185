package errors

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mirrorctl/mirrorctl/internal/logging"
	"github.com/mirrorctl/mirrorctl/internal/types"
	"github.com/mirrorctl/mirrorctl/internal/utils"
)

func testRequestContext() *types.RequestContext {
	return &types.RequestContext{
		Profile:     "default",
		Registry:    "https://mirror.example.com",
		PackageName: "left-pad",
		RequestType: types.RequestTypeSyncStatus,
		TraceID:     "test-trace-id",
	}
}

func statusError(code int) *types.StatusError {
	return &types.StatusError{
		StatusCode: code,
		Status:     "status",
		URL:        "https://mirror.example.com/sync/left-pad",
	}
}

func TestClassifyMirrorError_StatusCodes(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantCode      string
		wantRetryable bool
	}{
		{"bad request", 400, utils.ErrCodeInvalidArgument, false},
		{"unauthorized", 401, utils.ErrCodeAuthRequired, false},
		{"forbidden", 403, utils.ErrCodeAuthRequired, false},
		{"not found", 404, utils.ErrCodePackageNotFound, false},
		{"rate limited", 429, utils.ErrCodeRateLimited, true},
		{"server error", 500, utils.ErrCodeNetworkError, true},
		{"bad gateway", 502, utils.ErrCodeNetworkError, true},
		{"teapot", 418, utils.ErrCodeUnknown, false},
	}

	logger := logging.NewNoOpLogger()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyMirrorError(statusError(tt.status), testRequestContext(), logger)

			var appErr *utils.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("Expected AppError, got %T", err)
			}
			if appErr.CLIError.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", appErr.CLIError.Code, tt.wantCode)
			}
			if appErr.CLIError.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v", appErr.CLIError.Retryable, tt.wantRetryable)
			}
			if appErr.CLIError.HTTPStatus != tt.status {
				t.Errorf("HTTPStatus = %d, want %d", appErr.CLIError.HTTPStatus, tt.status)
			}
		})
	}
}

func TestClassifyMirrorError_ContextErrors(t *testing.T) {
	logger := logging.NewNoOpLogger()

	err := ClassifyMirrorError(context.Canceled, testRequestContext(), logger)
	if utils.ErrorCode(err) != utils.ErrCodeCancelled {
		t.Errorf("Expected CANCELLED, got %s", utils.ErrorCode(err))
	}

	err = ClassifyMirrorError(context.DeadlineExceeded, testRequestContext(), logger)
	if utils.ErrorCode(err) != utils.ErrCodeTimeout {
		t.Errorf("Expected TIMEOUT, got %s", utils.ErrorCode(err))
	}
}

func TestClassifyMirrorError_MalformedJSON(t *testing.T) {
	logger := logging.NewNoOpLogger()

	var target struct{ OK bool }
	jsonErr := json.Unmarshal([]byte("{not json"), &target)
	if jsonErr == nil {
		t.Fatal("Expected a JSON error for malformed input")
	}

	err := ClassifyMirrorError(jsonErr, testRequestContext(), logger)
	if utils.ErrorCode(err) != utils.ErrCodeInvalidResponse {
		t.Errorf("Expected INVALID_RESPONSE, got %s", utils.ErrorCode(err))
	}
}

func TestClassifyMirrorError_GenericError(t *testing.T) {
	logger := logging.NewNoOpLogger()

	err := ClassifyMirrorError(errors.New("connection refused"), testRequestContext(), logger)

	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("Expected AppError, got %T", err)
	}
	if appErr.CLIError.Code != utils.ErrCodeNetworkError {
		t.Errorf("Expected NETWORK_ERROR, got %s", appErr.CLIError.Code)
	}
	if !appErr.CLIError.Retryable {
		t.Error("Expected generic transport errors to be retryable")
	}
}
