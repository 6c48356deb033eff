package jobboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// SavedSession is what a TokenStore persists between runs.
type SavedSession struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}

// TokenStore persists the signed-in session.
type TokenStore interface {
	Load() (*SavedSession, error)
	Save(s *SavedSession) error
	Clear() error
}

// FileTokenStore keeps the session in a JSON file readable only by the owner.
type FileTokenStore struct {
	path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// DefaultSessionPath is $XDG_CONFIG_HOME/jobboard/session.json or its platform equivalent.
func DefaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "jobboard", "session.json")
}

// Load returns nil without error when no session has been saved.
func (f *FileTokenStore) Load() (*SavedSession, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var s SavedSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (f *FileTokenStore) Save(s *SavedSession) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (f *FileTokenStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// Session is the client's view of who is signed in. Subscribers are told
// about every change, including logouts forced by the server.
type Session struct {
	mu      sync.Mutex
	store   TokenStore
	current *SavedSession
	subs    map[int]func(*User)
	nextSub int
	now     func() time.Time
}

// NewSession restores any saved, unexpired session from store. store may be
// nil for a session that lives only in memory.
func NewSession(store TokenStore) (*Session, error) {
	s := &Session{store: store, subs: map[int]func(*User){}, now: time.Now}
	if store == nil {
		return s, nil
	}
	saved, err := store.Load()
	if err != nil {
		return nil, err
	}
	if saved != nil && saved.Token != "" && (saved.ExpiresAt.IsZero() || s.now().Before(saved.ExpiresAt)) {
		s.current = saved
	}
	return s, nil
}

// Token returns the bearer token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.Token
}

// User returns the signed-in user, or nil.
func (s *Session) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.current.User
}

// Set records a fresh sign-in.
func (s *Session) Set(resp *AuthResponse) error {
	return s.update(&SavedSession{Token: resp.Token, ExpiresAt: resp.ExpiresAt, User: resp.User})
}

// SetUser replaces the cached user after a profile change, keeping the token.
func (s *Session) SetUser(user *User) error {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return nil
	}
	next := *s.current
	s.mu.Unlock()

	next.User = user
	return s.update(&next)
}

// Clear signs out locally.
func (s *Session) Clear() error {
	return s.update(nil)
}

// Subscribe registers fn for session changes and returns a function that
// removes it.
func (s *Session) Subscribe(fn func(*User)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Session) update(next *SavedSession) error {
	s.mu.Lock()
	s.current = next
	subs := make([]func(*User), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	var err error
	if s.store != nil {
		if next == nil {
			err = s.store.Clear()
		} else {
			err = s.store.Save(next)
		}
	}

	var user *User
	if next != nil {
		user = next.User
	}
	for _, fn := range subs {
		fn(user)
	}
	return err
}
