package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewSessionStore(rdb, time.Hour), mr
}

func TestSessionLifecycle(t *testing.T) {
	sessions, mr := newTestSessions(t)
	ctx := context.Background()

	sid, err := sessions.Create(ctx, "u-1")
	require.NoError(t, err)
	require.NotEmpty(t, sid)
	assert.True(t, mr.Exists("session:"+sid))

	userID, err := sessions.Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)

	require.NoError(t, sessions.Delete(ctx, sid))
	userID, err = sessions.Get(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, userID)
}

func TestSessionExpires(t *testing.T) {
	sessions, mr := newTestSessions(t)
	ctx := context.Background()

	sid, err := sessions.Create(ctx, "u-1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	userID, err := sessions.Get(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, userID)
}

func TestStateIsSingleUse(t *testing.T) {
	sessions, mr := newTestSessions(t)
	ctx := context.Background()

	require.NoError(t, sessions.SaveState(ctx, "abc"))
	assert.Equal(t, StateTTL, mr.TTL("oauth_state:abc"))

	ok, err := sessions.ConsumeState(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = sessions.ConsumeState(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = sessions.ConsumeState(ctx, "never-issued")
	require.NoError(t, err)
	assert.False(t, ok)
}
