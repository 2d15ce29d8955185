package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSyncResult_JSONCarriesLog(t *testing.T) {
	result := SyncResult{
		PackageName: "left-pad",
		LogID:       "abc123",
		Attempts:    2,
		Elapsed:     5 * time.Second,
		ElapsedMs:   5000,
		LogURL:      "https://x/log",
		Log:         "sync complete\n",
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if decoded["log"] != "sync complete\n" {
		t.Errorf("log = %q, want the fetched log text", decoded["log"])
	}
	if _, ok := decoded["Elapsed"]; ok {
		t.Error("raw duration must not leak into the envelope")
	}
}
