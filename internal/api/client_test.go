package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mirrorctl/mirrorctl/internal/logging"
	"github.com/mirrorctl/mirrorctl/internal/types"
	"github.com/mirrorctl/mirrorctl/internal/utils"
)

func testClient(baseURL string, maxRetries int) *Client {
	return NewClient(ClientConfig{
		BaseURL:      baseURL,
		MaxRetries:   maxRetries,
		RetryDelayMs: 1,
		Logger:       logging.NewNoOpLogger(),
	})
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", &types.StatusError{StatusCode: 429}, true},
		{"server error", &types.StatusError{StatusCode: 500}, true},
		{"bad gateway", &types.StatusError{StatusCode: 502}, true},
		{"not found", &types.StatusError{StatusCode: 404}, false},
		{"bad request", &types.StatusError{StatusCode: 400}, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"json syntax", jsonError(), false},
		{"generic transport", errors.New("connection reset"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func jsonError() error {
	var out struct{}
	return json.Unmarshal([]byte("{oops"), &out)
}

func TestCalculateBackoff_HonorsRetryAfter(t *testing.T) {
	header := http.Header{}
	header.Set("Retry-After", "2")
	err := &types.StatusError{StatusCode: 429, Header: header}

	delay := calculateBackoff(time.Second, 0, err)
	if delay != 2*time.Second {
		t.Errorf("Expected 2s from Retry-After, got %v", delay)
	}
}

func TestCalculateBackoff_CapsRetryAfter(t *testing.T) {
	header := http.Header{}
	header.Set("Retry-After", "3600")
	err := &types.StatusError{StatusCode: 429, Header: header}

	delay := calculateBackoff(time.Second, 0, err)
	max := time.Duration(utils.MaxRetryDelayMs) * time.Millisecond
	if delay != max {
		t.Errorf("Expected cap %v, got %v", max, delay)
	}
}

func TestCalculateBackoff_ExponentialWithCap(t *testing.T) {
	base := 100 * time.Millisecond
	max := time.Duration(utils.MaxRetryDelayMs) * time.Millisecond

	for attempt := 0; attempt < 12; attempt++ {
		delay := calculateBackoff(base, attempt, errors.New("transient"))
		if delay <= 0 {
			t.Fatalf("attempt %d: non-positive delay %v", attempt, delay)
		}
		// Jitter is ±25%, so allow that margin above the cap
		if delay > max+max/4 {
			t.Fatalf("attempt %d: delay %v exceeds cap %v", attempt, delay, max)
		}
	}
}

func TestGetJSON_DecodesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true,"syncDone":false}`))
	}))
	defer server.Close()

	client := testClient(server.URL, 0)
	reqCtx := NewRequestContext("default", server.URL, types.RequestTypeSyncStatus)

	var status types.SyncStatus
	if err := client.GetJSON(context.Background(), reqCtx, "/sync/left-pad/log/abc123", &status); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}

	if !status.OK || status.SyncDone {
		t.Errorf("Unexpected status: %+v", status)
	}
}

func TestPutJSON_SendsAuthHeader(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.Method != http.MethodPut {
			t.Errorf("Expected PUT, got %s", r.Method)
		}
		w.Write([]byte(`{"ok":true,"logId":"abc123"}`))
	}))
	defer server.Close()

	client := NewClient(ClientConfig{
		BaseURL:      server.URL,
		Token:        "secret-token",
		RetryDelayMs: 1,
		Logger:       logging.NewNoOpLogger(),
	})
	reqCtx := NewRequestContext("default", server.URL, types.RequestTypeSyncTrigger)

	var resp types.TriggerResponse
	if err := client.PutJSON(context.Background(), reqCtx, "/sync/left-pad", &resp); err != nil {
		t.Fatalf("PutJSON() error = %v", err)
	}

	if gotAuth != "Bearer secret-token" {
		t.Errorf("Expected bearer auth header, got %q", gotAuth)
	}
	if resp.LogID != "abc123" {
		t.Errorf("Expected logId abc123, got %q", resp.LogID)
	}
}

func TestExecuteWithRetry_RetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true,"logId":"xyz"}`))
	}))
	defer server.Close()

	client := testClient(server.URL, 3)
	reqCtx := NewRequestContext("default", server.URL, types.RequestTypeSyncTrigger)

	var resp types.TriggerResponse
	if err := client.PutJSON(context.Background(), reqCtx, "/sync/pkg", &resp); err != nil {
		t.Fatalf("PutJSON() error = %v", err)
	}

	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
	if resp.LogID != "xyz" {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestExecuteWithRetry_DoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(server.URL, 3)
	reqCtx := NewRequestContext("default", server.URL, types.RequestTypeSyncStatus)

	var status types.SyncStatus
	err := client.GetJSON(context.Background(), reqCtx, "/sync/nope/log/1", &status)
	if err == nil {
		t.Fatal("Expected error for 404")
	}

	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
	if utils.ErrorCode(err) != utils.ErrCodePackageNotFound {
		t.Errorf("Expected PACKAGE_NOT_FOUND, got %s", utils.ErrorCode(err))
	}
}

func TestGetText_ReturnsBodyVerbatim(t *testing.T) {
	const logText = "sync complete\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(logText))
	}))
	defer server.Close()

	client := testClient(server.URL, 0)
	reqCtx := NewRequestContext("default", server.URL, types.RequestTypeLogFetch)

	got, err := client.GetText(context.Background(), reqCtx, server.URL+"/log")
	if err != nil {
		t.Fatalf("GetText() error = %v", err)
	}
	if got != logText {
		t.Errorf("GetText() = %q, want %q", got, logText)
	}
}

func TestGetText_FollowsRedirects(t *testing.T) {
	const logText = "redirected log body"
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(logText))
	}))
	defer target.Close()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusFound)
	}))
	defer server.Close()

	client := testClient(server.URL, 0)
	reqCtx := NewRequestContext("default", server.URL, types.RequestTypeLogFetch)

	got, err := client.GetText(context.Background(), reqCtx, server.URL+"/log")
	if err != nil {
		t.Fatalf("GetText() error = %v", err)
	}
	if got != logText {
		t.Errorf("GetText() = %q, want %q", got, logText)
	}
}
