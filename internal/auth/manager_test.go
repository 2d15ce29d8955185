package auth

import (
	"testing"
	"time"

	"github.com/mirrorctl/mirrorctl/internal/types"
	"github.com/mirrorctl/mirrorctl/internal/utils"
)

func newPlainFileManager(t *testing.T) *Manager {
	t.Helper()
	return NewManagerWithOptions(t.TempDir(), ManagerOptions{ForcePlainFile: true})
}

func TestSetAndGetToken(t *testing.T) {
	mgr := newPlainFileManager(t)

	created := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	err := mgr.SetToken("default", &types.TokenCredential{
		Token:     "npm_abc123def456",
		Registry:  "https://registry-direct.npmmirror.com",
		CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}

	cred, err := mgr.GetToken("default")
	if err != nil {
		t.Fatalf("GetToken failed: %v", err)
	}

	if cred.Token != "npm_abc123def456" {
		t.Errorf("Token = %q, want npm_abc123def456", cred.Token)
	}
	if cred.Registry != "https://registry-direct.npmmirror.com" {
		t.Errorf("Registry = %q", cred.Registry)
	}
	if !cred.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", cred.CreatedAt, created)
	}
}

func TestSetToken_EmptyToken(t *testing.T) {
	mgr := newPlainFileManager(t)

	for _, token := range []string{"", "   "} {
		err := mgr.SetToken("default", &types.TokenCredential{Token: token})
		if err == nil {
			t.Errorf("SetToken(%q) succeeded, want error", token)
			continue
		}
		if code := utils.ErrorCode(err); code != utils.ErrCodeInvalidArgument {
			t.Errorf("ErrorCode = %q, want %q", code, utils.ErrCodeInvalidArgument)
		}
	}
}

func TestGetToken_MissingProfile(t *testing.T) {
	mgr := newPlainFileManager(t)

	_, err := mgr.GetToken("no-such-profile")
	if err == nil {
		t.Fatal("Expected error for missing profile")
	}
	if code := utils.ErrorCode(err); code != utils.ErrCodeAuthRequired {
		t.Errorf("ErrorCode = %q, want %q", code, utils.ErrCodeAuthRequired)
	}
}

func TestDeleteToken(t *testing.T) {
	mgr := newPlainFileManager(t)

	err := mgr.SetToken("work", &types.TokenCredential{Token: "npm_token", CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}

	if err := mgr.DeleteToken("work"); err != nil {
		t.Fatalf("DeleteToken failed: %v", err)
	}

	if _, err := mgr.GetToken("work"); err == nil {
		t.Error("GetToken succeeded after delete")
	}
}

func TestOptionalToken(t *testing.T) {
	mgr := newPlainFileManager(t)

	// Missing token is not an error for anonymous endpoints
	if got := mgr.OptionalToken("default"); got != "" {
		t.Errorf("OptionalToken = %q, want empty", got)
	}

	err := mgr.SetToken("default", &types.TokenCredential{Token: "npm_secret", CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("SetToken failed: %v", err)
	}

	if got := mgr.OptionalToken("default"); got != "npm_secret" {
		t.Errorf("OptionalToken = %q, want npm_secret", got)
	}
}

func TestMaskToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"", "****"},
		{"short", "****"},
		{"12345678", "****"},
		{"npm_abc123def456", "npm_...f456"},
	}

	for _, tt := range tests {
		if got := MaskToken(tt.token); got != tt.want {
			t.Errorf("MaskToken(%q) = %q, want %q", tt.token, got, tt.want)
		}
	}
}

func TestManagerStorageSelection(t *testing.T) {
	tmpDir := t.TempDir()

	plain := NewManagerWithOptions(tmpDir, ManagerOptions{ForcePlainFile: true})
	if plain.GetStorageBackend() != "plain-file" {
		t.Errorf("Backend = %q, want plain-file", plain.GetStorageBackend())
	}
	if plain.GetStorageWarning() == "" {
		t.Error("Expected a warning for plain file storage")
	}

	encrypted := NewManagerWithOptions(tmpDir, ManagerOptions{ForceEncryptedFile: true})
	if encrypted.GetStorageBackend() != "encrypted-file" {
		t.Errorf("Backend = %q, want encrypted-file", encrypted.GetStorageBackend())
	}
	if encrypted.UseKeyring() {
		t.Error("Encrypted file manager should not report keyring use")
	}
	if encrypted.ConfigDir() != tmpDir {
		t.Errorf("ConfigDir = %q, want %q", encrypted.ConfigDir(), tmpDir)
	}
}
