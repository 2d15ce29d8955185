package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net"

	"github.com/mirrorctl/mirrorctl/internal/logging"
	"github.com/mirrorctl/mirrorctl/internal/types"
	"github.com/mirrorctl/mirrorctl/internal/utils"
)

// ClassifyMirrorError converts a raw transport failure into an AppError with
// a stable code and exit code. No error reaches the user unclassified.
func ClassifyMirrorError(err error, reqCtx *types.RequestContext, logger logging.Logger) error {
	var statusErr *types.StatusError
	if !errors.As(err, &statusErr) {
		return classifyNonStatusError(err, reqCtx, logger)
	}

	var code string
	var retryable bool

	switch statusErr.StatusCode {
	case 400:
		code = utils.ErrCodeInvalidArgument
	case 401, 403:
		code = utils.ErrCodeAuthRequired
	case 404:
		code = utils.ErrCodePackageNotFound
	case 429:
		code = utils.ErrCodeRateLimited
		retryable = true
	case 500, 502, 503, 504:
		code = utils.ErrCodeNetworkError
		retryable = true
	default:
		code = utils.ErrCodeUnknown
		retryable = statusErr.StatusCode >= 500
	}

	logger.Error("Mirror API error classified",
		logging.F("httpStatus", statusErr.StatusCode),
		logging.F("errorCode", code),
		logging.F("retryable", retryable),
		logging.F("url", statusErr.URL),
		logging.F("traceId", reqCtx.TraceID),
	)

	builder := utils.NewCLIError(code, statusErr.Error()).
		WithHTTPStatus(statusErr.StatusCode).
		WithRetryable(retryable).
		WithContext("traceId", reqCtx.TraceID).
		WithContext("requestType", string(reqCtx.RequestType))

	if reqCtx.PackageName != "" {
		builder.WithContext("package", reqCtx.PackageName)
	}

	switch code {
	case utils.ErrCodeAuthRequired:
		builder.WithContext("suggestedAction", "run 'mirrorctl auth set-token' to configure credentials")
	case utils.ErrCodePackageNotFound:
		builder.WithContext("suggestedAction", "verify the package name exists on the upstream registry")
	case utils.ErrCodeRateLimited:
		builder.WithContext("suggestedAction", "rate limit exceeded, retrying with backoff")
	}

	if statusErr.StatusCode >= 500 && statusErr.StatusCode <= 504 {
		builder.WithContext("serverError", true).
			WithContext("suggestedAction", "temporary server error, retrying")
	}

	return utils.NewAppError(builder.Build())
}

func classifyNonStatusError(err error, reqCtx *types.RequestContext, logger logging.Logger) error {
	var code string
	retryable := false

	var jsonSyntaxErr *json.SyntaxError
	var jsonTypeErr *json.UnmarshalTypeError
	var netErr net.Error

	switch {
	case errors.Is(err, context.Canceled):
		code = utils.ErrCodeCancelled
	case errors.Is(err, context.DeadlineExceeded):
		code = utils.ErrCodeTimeout
		retryable = true
	case errors.As(err, &jsonSyntaxErr), errors.As(err, &jsonTypeErr):
		code = utils.ErrCodeInvalidResponse
	case errors.As(err, &netErr):
		code = utils.ErrCodeNetworkError
		if netErr.Timeout() {
			code = utils.ErrCodeTimeout
		}
		retryable = true
	default:
		code = utils.ErrCodeNetworkError
		retryable = true
	}

	logger.Error("Transport error classified",
		logging.F("errorCode", code),
		logging.F("error", err.Error()),
		logging.F("traceId", reqCtx.TraceID),
	)

	return utils.NewAppError(utils.NewCLIError(code, err.Error()).
		WithRetryable(retryable).
		WithContext("traceId", reqCtx.TraceID).
		WithContext("requestType", string(reqCtx.RequestType)).
		Build())
}
