package types

import "time"

// SyncRequest names the package a sync job is requested for.
// Built once from the CLI argument and immutable afterwards.
type SyncRequest struct {
	PackageName string `json:"packageName"`
}

// SyncHandle identifies an asynchronous sync job on the mirror service.
// A handle is obtained at most once per invocation and never regenerated.
type SyncHandle struct {
	PackageName string `json:"packageName"`
	LogID       string `json:"logId"`
}

// SyncStatus is one status snapshot for an in-flight job. Each poll
// produces a fresh snapshot; nothing is accumulated client-side.
type SyncStatus struct {
	OK       bool   `json:"ok"`
	SyncDone bool   `json:"syncDone"`
	LogURL   string `json:"logUrl,omitempty"`
}

// TriggerResponse is the mirror service's answer to a sync trigger
type TriggerResponse struct {
	OK    bool   `json:"ok"`
	LogID string `json:"logId"`
	// Reason is populated by some mirrors when ok is false
	Reason string `json:"reason,omitempty"`
}

// SyncResult summarises a completed sync run
type SyncResult struct {
	PackageName string        `json:"packageName"`
	LogID       string        `json:"logId"`
	Attempts    int           `json:"attempts"`
	Elapsed     time.Duration `json:"-"`
	ElapsedMs   int64         `json:"elapsedMs"`
	LogURL      string        `json:"logUrl"`
	Log         string        `json:"log"`
}

// SyncStatusView pairs a status snapshot with its job identity for output
type SyncStatusView struct {
	PackageName string `json:"packageName"`
	LogID       string `json:"logId"`
	OK          bool   `json:"ok"`
	SyncDone    bool   `json:"syncDone"`
	LogURL      string `json:"logUrl,omitempty"`
}

// AsTableRenderer implements TableRenderable
func (v *SyncStatusView) AsTableRenderer() TableRenderer {
	return syncStatusTable{view: v}
}

type syncStatusTable struct {
	view *SyncStatusView
}

func (t syncStatusTable) Headers() []string {
	return []string{"Package", "Log ID", "OK", "Done", "Log URL"}
}

func (t syncStatusTable) Rows() [][]string {
	logURL := t.view.LogURL
	if logURL == "" {
		logURL = "-"
	}
	return [][]string{{
		t.view.PackageName,
		t.view.LogID,
		formatBool(t.view.OK),
		formatBool(t.view.SyncDone),
		logURL,
	}}
}

func (t syncStatusTable) EmptyMessage() string {
	return "No sync status available"
}

func formatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
