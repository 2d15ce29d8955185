package testing

import (
	"context"

	"github.com/mirrorctl/mirrorctl/internal/types"
)

// TestContext creates a standard test context
func TestContext() context.Context {
	return context.Background()
}

// TestRequestContext creates a standard request context for testing
func TestRequestContext() *types.RequestContext {
	return &types.RequestContext{
		Profile:     "test-profile",
		Registry:    "https://mirror.example.com",
		RequestType: types.RequestTypeSyncStatus,
		TraceID:     "test-trace-id",
	}
}

// TestRequestContextFor creates a request context for a package and request type
func TestRequestContextFor(packageName string, requestType types.RequestType) *types.RequestContext {
	reqCtx := TestRequestContext()
	reqCtx.PackageName = packageName
	reqCtx.RequestType = requestType
	return reqCtx
}

// TestSyncHandle creates a sync handle for testing
func TestSyncHandle(packageName, logID string) *types.SyncHandle {
	return &types.SyncHandle{
		PackageName: packageName,
		LogID:       logID,
	}
}

// DoneStatus creates a finished status snapshot pointing at logURL
func DoneStatus(logURL string) *types.SyncStatus {
	return &types.SyncStatus{
		OK:       true,
		SyncDone: true,
		LogURL:   logURL,
	}
}

// PendingStatus creates an in-progress status snapshot
func PendingStatus() *types.SyncStatus {
	return &types.SyncStatus{
		OK:       true,
		SyncDone: false,
	}
}
