package mocks

import (
	"context"

	"github.com/mirrorctl/mirrorctl/internal/types"
)

// MockTransport is a scripted mirror-service transport for tests.
// Unset funcs return benign defaults; call counters record traffic so
// tests can assert exactly how many requests a run produced.
type MockTransport struct {
	TriggerFunc  func(ctx context.Context, reqCtx *types.RequestContext, packageName string) (*types.TriggerResponse, error)
	StatusFunc   func(ctx context.Context, reqCtx *types.RequestContext, packageName, logID string) (*types.SyncStatus, error)
	FetchLogFunc func(ctx context.Context, reqCtx *types.RequestContext, logURL string) (string, error)

	TriggerCalls  int
	StatusCalls   int
	FetchLogCalls int
}

// NewMockTransport creates a transport whose unscripted calls succeed
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// Trigger records the call and runs the scripted func, if any
func (m *MockTransport) Trigger(ctx context.Context, reqCtx *types.RequestContext, packageName string) (*types.TriggerResponse, error) {
	m.TriggerCalls++
	if m.TriggerFunc != nil {
		return m.TriggerFunc(ctx, reqCtx, packageName)
	}
	return &types.TriggerResponse{OK: true, LogID: "mock-log-id"}, nil
}

// Status records the call and runs the scripted func, if any
func (m *MockTransport) Status(ctx context.Context, reqCtx *types.RequestContext, packageName, logID string) (*types.SyncStatus, error) {
	m.StatusCalls++
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, reqCtx, packageName, logID)
	}
	return &types.SyncStatus{OK: true, SyncDone: true, LogURL: "https://mirror.example.com/logs/mock"}, nil
}

// FetchLog records the call and runs the scripted func, if any
func (m *MockTransport) FetchLog(ctx context.Context, reqCtx *types.RequestContext, logURL string) (string, error) {
	m.FetchLogCalls++
	if m.FetchLogFunc != nil {
		return m.FetchLogFunc(ctx, reqCtx, logURL)
	}
	return "mock log\n", nil
}

// StatusSequence scripts StatusFunc to return the given snapshots in
// order, repeating the last one once the sequence is exhausted.
func (m *MockTransport) StatusSequence(statuses ...*types.SyncStatus) {
	i := 0
	m.StatusFunc = func(ctx context.Context, reqCtx *types.RequestContext, packageName, logID string) (*types.SyncStatus, error) {
		status := statuses[i]
		if i < len(statuses)-1 {
			i++
		}
		return status, nil
	}
}
