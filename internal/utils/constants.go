package utils

// DefaultRegistryURL is the mirror service used when none is configured
const DefaultRegistryURL = "https://registry-direct.npmmirror.com"

// Sync endpoint templates, relative to the registry base URL
const (
	SyncTriggerPath = "/-/sync/%s"        // PUT, package name
	SyncStatusPath  = "/-/sync/%s/log/%s" // GET, package name + log ID
)

// Poll loop configuration
const (
	DefaultMaxPollAttempts = 10
	DefaultPollIntervalMs  = 5000
)

// Retry configuration for individual HTTP requests
const (
	DefaultMaxRetries   = 3
	DefaultRetryDelayMs = 1000
	MaxRetryDelayMs     = 32000
)

// DefaultRequestTimeoutSeconds bounds a single HTTP request
const DefaultRequestTimeoutSeconds = 60

// MaxLogBytes caps how much of a sync log is read from the service
const MaxLogBytes = 10 * 1024 * 1024 // 10 MiB

// Schema version
const SchemaVersion = "1.0"

// KeyringService is the service name used for token storage
const KeyringService = "mirrorctl"
