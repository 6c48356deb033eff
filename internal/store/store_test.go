package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/quantumedge/backend/internal/models"
)

func newTestCache(t *testing.T) (*JobCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewJobCache(rdb, 30*time.Second), mr
}

func TestJobCacheMissThenHit(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	budget := 1500.0
	jobs := []models.Job{{
		ID:           primitive.NewObjectID(),
		Title:        "React Dev",
		Price:        &models.Price{Fixed: &budget},
		Skills:       []string{"React"},
		CreatorEmail: "a@b.com",
	}}
	require.NoError(t, cache.Fill(ctx, 0, jobs))

	got, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, jobs[0].ID, got[0].ID)
	assert.Equal(t, "React Dev", got[0].Title)
	assert.Equal(t, 1500.0, *got[0].Price.Fixed)
}

func TestJobCacheTimesComeBackUTC(t *testing.T) {
	local := time.Local
	time.Local = time.FixedZone("UTC+6", 6*60*60)
	t.Cleanup(func() { time.Local = local })

	cache, _ := newTestCache(t)
	ctx := context.Background()

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	deadline := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, cache.Fill(ctx, 0, []models.Job{{
		ID:        primitive.NewObjectID(),
		Title:     "Go Dev",
		Deadline:  &deadline,
		CreatedAt: created,
		UpdatedAt: created,
	}}))

	got, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.True(t, got[0].CreatedAt.Equal(created))
	assert.Equal(t, time.UTC, got[0].CreatedAt.Location())
	assert.Equal(t, time.UTC, got[0].UpdatedAt.Location())
	require.NotNil(t, got[0].Deadline)
	assert.Equal(t, "2026-03-01", got[0].Deadline.Format("2006-01-02"))
	assert.Equal(t, time.UTC, got[0].Deadline.Location())
}

func TestJobCacheInvalidateAndExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Fill(ctx, 0, []models.Job{}))
	require.NoError(t, cache.Invalidate(ctx))
	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	ver, err := cache.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ver)

	require.NoError(t, cache.Fill(ctx, ver, []models.Job{}))
	_, ok, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(31 * time.Second)
	_, ok, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJobCacheSkipsStaleFill(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	ver, err := cache.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), ver)

	// a write lands between reading the version and filling
	require.NoError(t, cache.Invalidate(ctx))
	require.NoError(t, cache.Fill(ctx, ver, []models.Job{{Title: "stale"}}))

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/jobs", migrateURL("postgres://u:p@db:5432/jobs"))
	assert.Equal(t, "pgx5://u:p@db/jobs", migrateURL("postgresql://u:p@db/jobs"))
}
