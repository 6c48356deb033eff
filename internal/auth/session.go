package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// StateTTL bounds how long a provider sign-in may take.
const StateTTL = 10 * time.Minute

// SessionStore wraps Redis for session management. A bearer token is only
// honoured while its session key exists, so deleting the key revokes it.
type SessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionStore(rdb *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

// Create stores a new session mapping sessionID -> userID.
func (s *SessionStore) Create(ctx context.Context, userID string) (string, error) {
	sid := uuid.New().String()
	err := s.rdb.Set(ctx, "session:"+sid, userID, s.ttl).Err()
	return sid, err
}

// Get returns the userID for a session, or "" if not found / expired.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (string, error) {
	val, err := s.rdb.Get(ctx, "session:"+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.rdb.Del(ctx, "session:"+sessionID).Err()
}

// SaveState records an OAuth state value for a pending provider sign-in.
func (s *SessionStore) SaveState(ctx context.Context, state string) error {
	return s.rdb.Set(ctx, "oauth_state:"+state, "1", StateTTL).Err()
}

// ConsumeState reports whether state was issued and not yet used, and burns it.
func (s *SessionStore) ConsumeState(ctx context.Context, state string) (bool, error) {
	_, err := s.rdb.GetDel(ctx, "oauth_state:"+state).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
