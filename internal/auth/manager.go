package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/mirrorctl/mirrorctl/internal/types"
	"github.com/mirrorctl/mirrorctl/internal/utils"
)

const serviceName = utils.KeyringService

// Manager handles registry token storage
type Manager struct {
	configDir      string
	useKeyring     bool
	useEncryption  bool
	storage        StorageBackend
	storageWarning string
}

// NewManager creates a new auth manager
func NewManager(configDir string) *Manager {
	return NewManagerWithOptions(configDir, ManagerOptions{})
}

// ManagerOptions configures the auth manager
type ManagerOptions struct {
	ForceEncryptedFile bool // Force use of encrypted file storage
	ForcePlainFile     bool // Force use of plain file storage (insecure, dev only)
}

// NewManagerWithOptions creates a new auth manager with specific options
func NewManagerWithOptions(configDir string, opts ManagerOptions) *Manager {
	mgr := &Manager{
		configDir: configDir,
	}

	if opts.ForcePlainFile {
		mgr.storage = NewPlainFileStorage(configDir)
		mgr.useKeyring = false
		mgr.useEncryption = false
		mgr.storageWarning = "WARNING: Using unencrypted file storage. Tokens are stored in plain text."
	} else if opts.ForceEncryptedFile || !checkKeyringAvailable() {
		storage, err := NewEncryptedFileStorage(configDir)
		if err != nil {
			// Fallback to plain file if encryption setup fails
			mgr.storage = NewPlainFileStorage(configDir)
			mgr.useEncryption = false
			mgr.storageWarning = fmt.Sprintf("WARNING: Encryption setup failed (%v). Using plain file storage.", err)
		} else {
			mgr.storage = storage
			mgr.useEncryption = true
			if !opts.ForceEncryptedFile {
				mgr.storageWarning = "INFO: System keyring not available. Using encrypted file storage."
			}
		}
		mgr.useKeyring = false
	} else {
		// System keyring (preferred)
		mgr.storage = NewKeyringStorage(serviceName)
		mgr.useKeyring = true
		mgr.useEncryption = false
	}

	return mgr
}

// checkKeyringAvailable tests if the system keyring is usable
func checkKeyringAvailable() bool {
	testKey := "mirrorctl-test"
	err := keyring.Set(serviceName, testKey, "test")
	if err != nil {
		return false
	}
	_ = keyring.Delete(serviceName, testKey)
	return true
}

// SetToken stores a registry token for a profile
func (m *Manager) SetToken(profile string, cred *types.TokenCredential) error {
	if strings.TrimSpace(cred.Token) == "" {
		return utils.NewAppError(utils.NewCLIError(utils.ErrCodeInvalidArgument,
			"Token must not be empty.").Build())
	}

	stored := types.StoredToken{
		Profile:   profile,
		Token:     cred.Token,
		Registry:  cred.Registry,
		CreatedAt: cred.CreatedAt.Format(time.RFC3339),
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := m.storage.Save(profile, data); err != nil {
		return err
	}

	if err := m.addProfileToList(profile); err != nil {
		// Non-fatal, the token itself is stored
		fmt.Fprintf(os.Stderr, "Warning: failed to update profile list: %v\n", err)
	}

	return nil
}

// GetToken loads the stored token for a profile
func (m *Manager) GetToken(profile string) (*types.TokenCredential, error) {
	data, err := m.storage.Load(profile)
	if err != nil {
		return nil, utils.NewAppError(utils.NewCLIError(utils.ErrCodeAuthRequired,
			fmt.Sprintf("No token found for profile '%s'. Run 'mirrorctl auth set-token' first.", profile)).Build())
	}

	var stored types.StoredToken
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse stored token: %w", err)
	}

	createdAt, _ := time.Parse(time.RFC3339, stored.CreatedAt)
	return &types.TokenCredential{
		Token:     stored.Token,
		Registry:  stored.Registry,
		CreatedAt: createdAt,
	}, nil
}

// DeleteToken removes the stored token for a profile
func (m *Manager) DeleteToken(profile string) error {
	if err := m.storage.Delete(profile); err != nil {
		return err
	}

	if err := m.removeProfileFromList(profile); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to update profile list: %v\n", err)
	}

	return nil
}

// OptionalToken loads the token for a profile if one exists. Mirror
// endpoints work anonymously, so a missing token is not an error.
func (m *Manager) OptionalToken(profile string) string {
	cred, err := m.GetToken(profile)
	if err != nil {
		return ""
	}
	return cred.Token
}

// MaskToken renders a token safe for display
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// UseKeyring returns whether the manager is using the system keyring
func (m *Manager) UseKeyring() bool {
	return m.useKeyring
}

// ConfigDir returns the configuration directory
func (m *Manager) ConfigDir() string {
	return m.configDir
}

// GetStorageBackend returns the name of the storage backend being used
func (m *Manager) GetStorageBackend() string {
	return m.storage.Name()
}

// GetStorageWarning returns any warning message about the storage backend
func (m *Manager) GetStorageWarning() string {
	return m.storageWarning
}
