// Package session owns the operator's authenticated working state: the bearer
// token, its expiry, decoded claims, and the server-confirmed profile.
//
// A single Manager is constructed at the application root and passed by handle
// to every consumer; nothing else touches the credential store after startup.
package session

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"llamero/internal/api"
	"llamero/internal/authstore"
	"llamero/internal/claims"
)

// Operator-facing messages for the two profile-refresh failure modes.
const (
	msgSessionExpired = "Session expired. Please sign in again."
	msgProfileFailed  = "Unable to load profile"
)

// ProfileFetcher is the one control-plane call the manager performs itself.
type ProfileFetcher interface {
	Profile(ctx context.Context) (*api.User, error)
}

// Manager holds session state behind a mutex. All accessors return snapshots;
// claims are re-derived from the current token on every read, never stored.
type Manager struct {
	store    *authstore.Store
	loginURL string
	now      func() time.Time

	mu        sync.Mutex
	profiles  ProfileFetcher
	token     string
	expiresAt int64 // unix ms, 0 = no known expiry
	profile   *api.User
	loading   bool
	errMsg    string
}

// New creates a Manager over the given credential store. loginURL is the
// control plane root the identity-provider handoff lives under.
func New(store *authstore.Store, loginURL string) *Manager {
	return &Manager{
		store:    store,
		loginURL: loginURL,
		now:      time.Now,
	}
}

// SetProfileFetcher wires the API client in after construction. The client
// needs the manager as its token source, so the two are bound in two steps.
func (m *Manager) SetProfileFetcher(f ProfileFetcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles = f
}

// Hydrate reads the credential store once at startup. A stored expiry already
// in the past clears the store and leaves the session unauthenticated; stale
// local state is never trusted.
func (m *Manager) Hydrate() {
	stored := m.store.Load()
	if stored.Token == "" {
		return
	}
	if stored.ExpiresAt > 0 && stored.ExpiresAt < m.now().UnixMilli() {
		m.store.Clear()
		slog.Info("stored session expired, starting signed out")
		return
	}
	m.mu.Lock()
	m.token = stored.Token
	m.expiresAt = stored.ExpiresAt
	m.mu.Unlock()
}

// SetSession installs a new bearer token. expiresIn is a TTL in seconds; zero
// means the token carries no known expiry. State and store update together.
func (m *Manager) SetSession(token string, expiresIn int64) {
	var expiresAt int64
	if expiresIn > 0 {
		expiresAt = m.now().UnixMilli() + expiresIn*1000
	}

	m.mu.Lock()
	m.token = token
	m.expiresAt = expiresAt
	m.profile = nil
	m.errMsg = ""
	m.mu.Unlock()

	m.store.Save(token, expiresAt)
}

// Logout clears the credential store and every in-memory session field.
func (m *Manager) Logout() {
	m.store.Clear()
	m.mu.Lock()
	m.token = ""
	m.expiresAt = 0
	m.profile = nil
	m.errMsg = ""
	m.mu.Unlock()
}

// RefreshProfile performs the authenticated profile fetch. A 401 terminates
// the session; any other failure leaves it intact and records a generic
// message. Errors never escape: outcomes land in the manager's state.
func (m *Manager) RefreshProfile(ctx context.Context) {
	m.mu.Lock()
	if m.token == "" || m.profiles == nil {
		m.mu.Unlock()
		return
	}
	fetch := m.profiles
	m.loading = true
	m.errMsg = ""
	m.mu.Unlock()

	profile, err := fetch.Profile(ctx)

	if err != nil {
		slog.Error("load profile", "error", err)
		if api.IsUnauthorized(err) {
			m.Logout()
			m.mu.Lock()
			m.errMsg = msgSessionExpired
			m.loading = false
			m.mu.Unlock()
			return
		}
		m.mu.Lock()
		m.errMsg = msgProfileFailed
		m.loading = false
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	m.profile = profile
	m.loading = false
	m.mu.Unlock()
}

// LoginURL returns the identity-provider entry point the operator should
// open in a browser.
func (m *Manager) LoginURL() string {
	return strings.TrimRight(m.loginURL, "/") + "/auth/login"
}

// ConsumeLoginFragment parses the redirect fragment the identity provider
// hands back ("token=...&expires_in=...") and installs the session. Returns
// false when the fragment carries no token. The fragment is consumed once;
// callers must not retain it.
func (m *Manager) ConsumeLoginFragment(fragment string) bool {
	fragment = strings.TrimPrefix(strings.TrimSpace(fragment), "#")
	if fragment == "" {
		return false
	}
	values, err := url.ParseQuery(fragment)
	if err != nil {
		return false
	}
	token := values.Get("token")
	if token == "" {
		return false
	}
	var expiresIn int64
	if raw := values.Get("expires_in"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			expiresIn = parsed
		}
	}
	m.SetSession(token, expiresIn)
	return true
}

// Token implements api.TokenSource.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// IsAuthenticated reports whether a token is present.
func (m *Manager) IsAuthenticated() bool {
	return m.Token() != ""
}

// ExpiresAt returns the token expiry, or the zero time when none is known.
func (m *Manager) ExpiresAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expiresAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(m.expiresAt)
}

// Claims returns the decoded payload of the current token, or nil. Always
// re-derived; display hints only.
func (m *Manager) Claims() *claims.Claims {
	return claims.Decode(m.Token())
}

// Profile returns the last fetched identity record, or nil.
func (m *Manager) Profile() *api.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profile
}

// Loading reports whether a profile fetch is in flight.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Err returns the operator-facing message from the most recent profile fetch,
// or "".
func (m *Manager) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errMsg
}
