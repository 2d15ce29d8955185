package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mirrorctl/mirrorctl/internal/errors"
	"github.com/mirrorctl/mirrorctl/internal/logging"
	"github.com/mirrorctl/mirrorctl/internal/types"
	"github.com/mirrorctl/mirrorctl/internal/utils"
)

const userAgent = "mirrorctl/1.0"

// Client wraps HTTP access to the mirror service with retry logic,
// trace-ID logging and error classification. Redirects are followed
// by the underlying http.Client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	maxRetries int
	retryDelay time.Duration
	logger     logging.Logger
}

// ClientConfig configures a mirror API client
type ClientConfig struct {
	BaseURL        string
	Token          string
	MaxRetries     int
	RetryDelayMs   int
	RequestTimeout time.Duration
	Logger         logging.Logger
}

// NewClient creates a new mirror API client
func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = time.Duration(utils.DefaultRequestTimeoutSeconds) * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		maxRetries: cfg.MaxRetries,
		retryDelay: time.Duration(cfg.RetryDelayMs) * time.Millisecond,
		logger:     logger,
	}
}

// BaseURL returns the configured registry base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// NewRequestContext creates a new request context with trace ID
func NewRequestContext(profile, registry string, requestType types.RequestType) *types.RequestContext {
	return &types.RequestContext{
		Profile:     profile,
		Registry:    registry,
		RequestType: requestType,
		TraceID:     uuid.New().String(),
	}
}

// PutJSON issues a PUT against a registry-relative path and decodes the
// JSON response body into out.
func (c *Client) PutJSON(ctx context.Context, reqCtx *types.RequestContext, path string, out interface{}) error {
	_, err := ExecuteWithRetry(ctx, c, reqCtx, func() (struct{}, error) {
		body, err := c.do(ctx, http.MethodPut, c.baseURL+path)
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, json.Unmarshal(body, out)
	})
	return err
}

// GetJSON issues a GET against a registry-relative path and decodes the
// JSON response body into out.
func (c *Client) GetJSON(ctx context.Context, reqCtx *types.RequestContext, path string, out interface{}) error {
	_, err := ExecuteWithRetry(ctx, c, reqCtx, func() (struct{}, error) {
		body, err := c.do(ctx, http.MethodGet, c.baseURL+path)
		if err != nil {
			return struct{}{}, err
		}
		return struct{}{}, json.Unmarshal(body, out)
	})
	return err
}

// GetText issues a GET against an absolute URL and returns the plain-text
// response body. Used for log fetches, where the service redirects to a
// storage host outside the registry base URL.
func (c *Client) GetText(ctx context.Context, reqCtx *types.RequestContext, rawURL string) (string, error) {
	return ExecuteWithRetry(ctx, c, reqCtx, func() (string, error) {
		body, err := c.do(ctx, http.MethodGet, rawURL)
		if err != nil {
			return "", err
		}
		return string(body), nil
	})
}

// do performs a single HTTP request and returns the response body.
// Non-2xx responses become *types.StatusError.
func (c *Client) do(ctx context.Context, method, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json, text/plain")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("mirror request", logging.F("method", method), logging.F("url", rawURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, utils.MaxLogBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &types.StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        rawURL,
			Header:     resp.Header,
			Body:       body,
		}
	}

	return body, nil
}

// ExecuteWithRetry executes an API call with retry logic
func ExecuteWithRetry[T any](ctx context.Context, client *Client, reqCtx *types.RequestContext, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error

	logger := client.logger.WithTraceID(reqCtx.TraceID)
	logger.Debug("API operation starting",
		logging.F("requestType", reqCtx.RequestType),
		logging.F("traceId", reqCtx.TraceID),
		logging.F("profile", reqCtx.Profile),
	)

	start := time.Now()

	for attempt := 0; attempt <= client.maxRetries; attempt++ {
		if attempt > 0 {
			logger.Warn("Retrying API operation",
				logging.F("attempt", attempt),
				logging.F("maxRetries", client.maxRetries),
			)
		}

		result, lastErr = fn()
		if lastErr == nil {
			duration := time.Since(start)
			logger.Debug("API operation completed",
				logging.F("duration_ms", duration.Milliseconds()),
				logging.F("attempts", attempt+1),
			)
			return result, nil
		}

		if !isRetryable(lastErr) {
			duration := time.Since(start)
			logger.Error("API operation failed (non-retryable)",
				logging.F("duration_ms", duration.Milliseconds()),
				logging.F("error", lastErr.Error()),
				logging.F("attempts", attempt+1),
			)
			return result, classifyError(lastErr, reqCtx, client.logger)
		}

		if attempt < client.maxRetries {
			delay := calculateBackoff(client.retryDelay, attempt, lastErr)
			logger.Warn("API operation failed (retryable)",
				logging.F("attempt", attempt+1),
				logging.F("delay_ms", delay.Milliseconds()),
				logging.F("error", lastErr.Error()),
			)
			select {
			case <-ctx.Done():
				return result, classifyError(ctx.Err(), reqCtx, client.logger)
			case <-time.After(delay):
			}
		}
	}

	duration := time.Since(start)
	logger.Error("API operation failed after max retries",
		logging.F("duration_ms", duration.Milliseconds()),
		logging.F("attempts", client.maxRetries+1),
		logging.F("error", lastErr.Error()),
	)

	return result, classifyError(lastErr, reqCtx, client.logger)
}

// isRetryable checks if an error is retryable
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *types.StatusError
	if stderrors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}
	// JSON decode failures mean the service answered 2xx with garbage;
	// retrying won't change the payload.
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &syntaxErr) || stderrors.As(err, &typeErr) {
		return false
	}
	// Anything else is transport-level (dial, reset, timeout)
	return true
}

// calculateBackoff calculates the retry delay with exponential backoff
func calculateBackoff(baseDelay time.Duration, attempt int, err error) time.Duration {
	// Honor Retry-After when the service sends one
	var statusErr *types.StatusError
	if stderrors.As(err, &statusErr) && statusErr.Header != nil {
		retryAfter := statusErr.Header.Get("Retry-After")
		if retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil {
				delay := time.Duration(seconds) * time.Second
				if delay > time.Duration(utils.MaxRetryDelayMs)*time.Millisecond {
					return time.Duration(utils.MaxRetryDelayMs) * time.Millisecond
				}
				return delay
			}
		}
	}

	// Exponential backoff: base * 2^attempt
	delay := baseDelay * time.Duration(math.Pow(2, float64(attempt)))

	if delay > time.Duration(utils.MaxRetryDelayMs)*time.Millisecond {
		delay = time.Duration(utils.MaxRetryDelayMs) * time.Millisecond
	}

	// Add jitter (±25% of delay)
	jitterRange := delay / 4
	if jitterRange > 0 {
		jitter := time.Duration(rand.Int63n(int64(jitterRange*2))) - jitterRange
		delay = delay + jitter
	}

	if delay < 0 {
		delay = baseDelay
	}

	return delay
}

// classifyError converts raw transport errors to CLI errors
func classifyError(err error, reqCtx *types.RequestContext, logger logging.Logger) error {
	return errors.ClassifyMirrorError(err, reqCtx, logger)
}
