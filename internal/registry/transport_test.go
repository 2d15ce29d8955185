package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirrorctl/mirrorctl/internal/api"
	testhelpers "github.com/mirrorctl/mirrorctl/internal/testing"
	"github.com/mirrorctl/mirrorctl/internal/types"
)

func newTestTransport(serverURL string) *HTTPTransport {
	return NewHTTPTransport(api.NewClient(api.ClientConfig{BaseURL: serverURL}))
}

func TestHTTPTransport_Trigger(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/-/sync/left-pad", r.URL.Path)
		json.NewEncoder(w).Encode(types.TriggerResponse{OK: true, LogID: "abc123"})
	}))
	defer server.Close()

	transport := newTestTransport(server.URL)

	resp, err := transport.Trigger(context.Background(), testhelpers.TestRequestContext(), "left-pad")
	require.NoError(t, err)
	assert.True(t, resp.OK)
	assert.Equal(t, "abc123", resp.LogID)
}

func TestHTTPTransport_Trigger_ScopedPackage(t *testing.T) {
	// @babel/core travels as one path segment with the slash encoded
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/-/sync/@babel%2Fcore", r.URL.EscapedPath())
		json.NewEncoder(w).Encode(types.TriggerResponse{OK: true, LogID: "xyz"})
	}))
	defer server.Close()

	transport := newTestTransport(server.URL)

	resp, err := transport.Trigger(context.Background(), testhelpers.TestRequestContext(), "@babel/core")
	require.NoError(t, err)
	assert.Equal(t, "xyz", resp.LogID)
}

func TestHTTPTransport_Status(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/-/sync/left-pad/log/abc123", r.URL.Path)
		json.NewEncoder(w).Encode(types.SyncStatus{OK: true, SyncDone: true, LogURL: "https://x/log"})
	}))
	defer server.Close()

	transport := newTestTransport(server.URL)

	status, err := transport.Status(context.Background(), testhelpers.TestRequestContext(), "left-pad", "abc123")
	require.NoError(t, err)
	assert.True(t, status.OK)
	assert.True(t, status.SyncDone)
	assert.Equal(t, "https://x/log", status.LogURL)
}

func TestHTTPTransport_FetchLog(t *testing.T) {
	const body = "[info] syncing left-pad\n[done] 12 versions\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/logs/abc123", r.URL.Path)
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(body))
	}))
	defer server.Close()

	transport := newTestTransport(server.URL)

	log, err := transport.FetchLog(context.Background(), testhelpers.TestRequestContext(), server.URL+"/logs/abc123")
	require.NoError(t, err)
	assert.Equal(t, body, log)
}

func TestHTTPTransport_FollowsRedirects(t *testing.T) {
	// Mirrors answer status reads with 302s to a CDN-backed location, and
	// the log URL itself may redirect once more
	const body = "[done] synced\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/-/sync/left-pad/log/abc123":
			http.Redirect(w, r, "/moved/status", http.StatusFound)
		case "/moved/status":
			json.NewEncoder(w).Encode(types.SyncStatus{OK: true, SyncDone: true, LogURL: "/logs/abc123"})
		case "/logs/abc123":
			http.Redirect(w, r, "/moved/log", http.StatusFound)
		case "/moved/log":
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte(body))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	transport := newTestTransport(server.URL)

	status, err := transport.Status(context.Background(), testhelpers.TestRequestContext(), "left-pad", "abc123")
	require.NoError(t, err)
	assert.True(t, status.SyncDone)

	log, err := transport.FetchLog(context.Background(), testhelpers.TestRequestContext(), server.URL+"/logs/abc123")
	require.NoError(t, err)
	assert.Equal(t, body, log)
}

func TestEscapePackageName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"left-pad", "left-pad"},
		{"@babel/core", "@babel%2Fcore"},
		{"@types/node", "@types%2Fnode"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapePackageName(tt.name))
	}
}
