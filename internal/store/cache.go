package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack"

	"github.com/quantumedge/backend/internal/models"
)

const (
	allJobsKey     = "jobs:all"
	jobsVersionKey = "jobs:version"
)

// JobCache keeps the public job listing in Redis, msgpack-encoded. Every write
// bumps jobs:version, and a fill only lands if the version it read before
// querying the store is still current.
type JobCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewJobCache(rdb *redis.Client, ttl time.Duration) *JobCache {
	return &JobCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached listing. ok is false on a miss.
func (c *JobCache) Get(ctx context.Context) (jobs []models.Job, ok bool, err error) {
	raw, err := c.rdb.Get(ctx, allJobsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	if err := msgpack.Unmarshal(raw, &jobs); err != nil {
		return nil, false, fmt.Errorf("cache decode: %w", err)
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	// msgpack decodes times in time.Local
	for i := range jobs {
		jobs[i].CreatedAt = jobs[i].CreatedAt.UTC()
		jobs[i].UpdatedAt = jobs[i].UpdatedAt.UTC()
		if jobs[i].Deadline != nil {
			d := jobs[i].Deadline.UTC()
			jobs[i].Deadline = &d
		}
	}
	return jobs, true, nil
}

// Version returns the current listing version, 0 before the first write.
func (c *JobCache) Version(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, jobsVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache version: %w", err)
	}
	return v, nil
}

// Fill stores jobs if no write has happened since version was read. A
// skipped fill is not an error.
func (c *JobCache) Fill(ctx context.Context, version int64, jobs []models.Job) error {
	raw, err := msgpack.Marshal(jobs)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}

	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, jobsVersionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, allJobsKey, raw, c.ttl)
			return nil
		})
		return err
	}, jobsVersionKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cache fill: %w", err)
	}
	return nil
}

// Invalidate drops the listing and bumps the version.
func (c *JobCache) Invalidate(ctx context.Context) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, jobsVersionKey)
		pipe.Del(ctx, allJobsKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}
