// Package authstore persists the operator's bearer credential between runs.
//
// The store is a single JSON document in the user config directory. Every
// operation degrades to "nothing stored" rather than failing: a console must
// start cleanly on a fresh machine, a read-only home, or a corrupted file.
package authstore

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const fileName = "credentials.json"

// StoredAuth is the persisted credential pair. ExpiresAt is Unix
// milliseconds; zero means the token has no known expiry.
type StoredAuth struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"token_exp,omitempty"`
}

// Store reads and writes the credentials file.
type Store struct {
	path string
}

// New returns a Store rooted at dir (typically <UserConfigDir>/llamero).
func New(dir string) *Store {
	return &Store{path: filepath.Join(dir, fileName)}
}

// DefaultDir returns the per-user config directory for the console, or ""
// when the platform offers none.
func DefaultDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "llamero")
}

// Load returns the stored credential pair. Any failure (missing file,
// unreadable storage, malformed contents) reads as nothing stored.
func (s *Store) Load() StoredAuth {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return StoredAuth{}
	}
	var auth StoredAuth
	if err := json.Unmarshal(raw, &auth); err != nil {
		return StoredAuth{}
	}
	return auth
}

// Save writes the token, recording the expiry only when it is a positive
// instant. A previously stored expiry is dropped otherwise.
func (s *Store) Save(token string, expiresAt int64) {
	auth := StoredAuth{Token: token}
	if expiresAt > 0 {
		auth.ExpiresAt = expiresAt
	}
	raw, err := json.Marshal(auth)
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(s.path), 0o700)
	_ = os.WriteFile(s.path, raw, 0o600)
}

// Clear removes the stored credential pair.
func (s *Store) Clear() {
	_ = os.Remove(s.path)
}
