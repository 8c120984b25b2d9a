package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"nexora/pkg/config"

	"github.com/google/uuid"
)

// Session holds the signed-in user's local state. It replaces the pile of
// untyped browser local-storage keys (userId, authToken, userName,
// userCredits, userSubscription, onboarding flags) with one typed record.
type Session struct {
	UserID       string          `json:"user_id,omitempty"`
	UserName     string          `json:"user_name,omitempty"`
	AuthToken    string          `json:"auth_token,omitempty"`
	RefreshToken string          `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time       `json:"expires_at,omitempty"`
	Credits      int             `json:"credits"`
	Subscription string          `json:"subscription,omitempty"`
	Guest        bool            `json:"guest,omitempty"`
	Flags        map[string]bool `json:"flags,omitempty"`
}

// Authenticated reports whether the session can enter protected views.
// A guest session counts; an empty one does not.
func (s *Session) Authenticated() bool {
	if s.Guest {
		return s.UserID != ""
	}
	return s.UserID != "" && s.AuthToken != ""
}

// IsExpired returns true if the access token has expired.
func (s *Session) IsExpired() bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(s.ExpiresAt)
}

// IsExpiringSoon returns true if the access token expires within the given duration.
func (s *Session) IsExpiringSoon(within time.Duration) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(within).After(s.ExpiresAt)
}

// Flag returns the named onboarding/dismissal flag.
func (s *Session) Flag(name string) bool {
	return s.Flags[name]
}

// NewGuest creates an explicit local guest identity. This is the only way a
// session comes into existence without the backend issuing it: it is gated
// behind guest_mode in config and is never created implicitly.
func NewGuest() Session {
	return Session{
		UserID:   "guest-" + uuid.NewString(),
		UserName: "Guest",
		Guest:    true,
	}
}

// Store persists the session to disk with secure permissions.
type Store struct {
	path    string
	mu      sync.RWMutex
	current Session
}

// DefaultPath returns the default path for session.json.
func DefaultPath() string {
	return filepath.Join(config.Dir(), "session.json")
}

// Open creates a Store backed by the given path and loads any existing
// session. A missing file yields an empty, unauthenticated session.
func Open(path string) (*Store, error) {
	st := &Store{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}

	st.current = s
	slog.Debug("session_load",
		"user_id", s.UserID,
		"guest", s.Guest,
		"expires_at_set", !s.ExpiresAt.IsZero(),
	)
	return st, nil
}

// Current returns a copy of the session.
func (st *Store) Current() Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current
}

// Token returns the current access token ("" for guests and signed-out sessions).
func (st *Store) Token() string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current.AuthToken
}

// RefreshToken returns the current refresh token.
func (st *Store) RefreshToken() string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current.RefreshToken
}

// Authenticated reports whether the stored session can enter protected views.
func (st *Store) Authenticated() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current.Authenticated()
}

// Replace swaps in a whole new session and persists it.
func (st *Store) Replace(s Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.current = s
	slog.Debug("session_save",
		"user_id", s.UserID,
		"guest", s.Guest,
		"has_refresh", s.RefreshToken != "",
	)
	return st.persist()
}

// Update applies fn to the session under the write lock and persists the result.
func (st *Store) Update(fn func(*Session)) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(&st.current)
	return st.persist()
}

// SetTokens stores a fresh token pair, e.g. after login or refresh.
func (st *Store) SetTokens(access, refresh string, expiresAt time.Time) error {
	return st.Update(func(s *Session) {
		s.AuthToken = access
		if refresh != "" {
			s.RefreshToken = refresh
		}
		s.ExpiresAt = expiresAt
	})
}

// SetFlag records an onboarding/dismissal flag.
func (st *Store) SetFlag(name string, value bool) error {
	return st.Update(func(s *Session) {
		if s.Flags == nil {
			s.Flags = make(map[string]bool)
		}
		s.Flags[name] = value
	})
}

// Clear wipes the session from memory and disk. Called when a token refresh
// fails for good.
func (st *Store) Clear() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.current = Session{}
	slog.Debug("session_clear", "path", st.path)

	if err := os.Remove(st.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// persist writes the session to disk. Caller must hold the write lock.
func (st *Store) persist() error {
	dir := filepath.Dir(st.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(st.current, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(st.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}
