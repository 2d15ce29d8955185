package registry

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mirrorctl/mirrorctl/internal/api"
	"github.com/mirrorctl/mirrorctl/internal/types"
	"github.com/mirrorctl/mirrorctl/internal/utils"
)

// Transport is the mirror service capability the poller depends on.
// Tests substitute a scripted fake; production uses HTTPTransport.
type Transport interface {
	// Trigger starts a sync job for a package
	Trigger(ctx context.Context, reqCtx *types.RequestContext, packageName string) (*types.TriggerResponse, error)
	// Status fetches one status snapshot for an in-flight job
	Status(ctx context.Context, reqCtx *types.RequestContext, packageName, logID string) (*types.SyncStatus, error)
	// FetchLog retrieves the plain-text log of a finished job
	FetchLog(ctx context.Context, reqCtx *types.RequestContext, logURL string) (string, error)
}

// HTTPTransport implements Transport against a real mirror service
type HTTPTransport struct {
	client *api.Client
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a transport backed by the given API client
func NewHTTPTransport(client *api.Client) *HTTPTransport {
	return &HTTPTransport{client: client}
}

// Trigger issues the state-changing PUT that starts a sync job
func (t *HTTPTransport) Trigger(ctx context.Context, reqCtx *types.RequestContext, packageName string) (*types.TriggerResponse, error) {
	path := fmt.Sprintf(utils.SyncTriggerPath, escapePackageName(packageName))

	var resp types.TriggerResponse
	if err := t.client.PutJSON(ctx, reqCtx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status fetches the current job status, following redirects
func (t *HTTPTransport) Status(ctx context.Context, reqCtx *types.RequestContext, packageName, logID string) (*types.SyncStatus, error) {
	path := fmt.Sprintf(utils.SyncStatusPath, escapePackageName(packageName), url.PathEscape(logID))

	var status types.SyncStatus
	if err := t.client.GetJSON(ctx, reqCtx, path, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// FetchLog retrieves the log body from the URL the status response names
func (t *HTTPTransport) FetchLog(ctx context.Context, reqCtx *types.RequestContext, logURL string) (string, error) {
	return t.client.GetText(ctx, reqCtx, logURL)
}

// escapePackageName escapes a package name for use as a single path
// segment. Scoped names like @scope/pkg must keep the slash encoded.
func escapePackageName(name string) string {
	return url.PathEscape(name)
}
