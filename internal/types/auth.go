package types

import "time"

// TokenCredential is an access token for a mirror registry profile
type TokenCredential struct {
	Token     string    `json:"token"`
	Registry  string    `json:"registry,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// StoredToken is the serialized form kept in the storage backend
type StoredToken struct {
	Profile   string `json:"profile"`
	Token     string `json:"token"`
	Registry  string `json:"registry,omitempty"`
	CreatedAt string `json:"createdAt"`
}
