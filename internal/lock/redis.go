package lock

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLock implements Lock on a Redis key holding the acquire timestamp.
// Create-if-absent is SETNX; staleness is judged by the stored timestamp
// rather than key expiry so a reclaim can report the holder's age.
type RedisLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisLock creates a lock on the given key.
func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{
		client: client,
		key:    key,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Acquire attempts create-if-absent of the lock key. A fresh holder yields
// (false, "busy (<age>s)"); a stale holder is deleted and the create retried
// once, losing that race yields (false, "busy").
func (l *RedisLock) Acquire(ctx context.Context) (bool, string, error) {
	created, err := l.tryCreate(ctx)
	if err != nil {
		return false, "", err
	}
	if created {
		return true, "acquired", nil
	}

	raw, err := l.client.Get(ctx, l.key).Result()
	if err == redis.Nil {
		// Holder released between SETNX and GET; take the free slot.
		created, err = l.tryCreate(ctx)
		if err != nil {
			return false, "", err
		}
		if created {
			return true, "acquired", nil
		}
		return false, "busy", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("read lock: %w", err)
	}

	age := l.holderAge(raw)
	if age < l.ttl {
		return false, fmt.Sprintf("busy (%ds)", int(age.Seconds())), nil
	}

	// Stale holder: clear it and retry the create once. Losing the retry
	// means another acquirer won the race.
	if err := l.client.Del(ctx, l.key).Err(); err != nil {
		return false, "", fmt.Errorf("delete stale lock: %w", err)
	}
	created, err = l.tryCreate(ctx)
	if err != nil {
		return false, "", err
	}
	if created {
		return true, "acquired", nil
	}
	return false, "busy", nil
}

// Release deletes the lock key. Errors are swallowed by callers per the
// interface contract, but returned for logging.
func (l *RedisLock) Release(ctx context.Context) error {
	if err := l.client.Del(ctx, l.key).Err(); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	return nil
}

// tryCreate performs the atomic create-if-absent.
func (l *RedisLock) tryCreate(ctx context.Context) (bool, error) {
	created, err := l.client.SetNX(ctx, l.key, strconv.FormatInt(l.now().Unix(), 10), 0).Result()
	if err != nil {
		return false, fmt.Errorf("create lock: %w", err)
	}
	return created, nil
}

// holderAge parses the stored timestamp. An unparseable value is treated as
// infinitely old so a corrupt lock never wedges the pipeline.
func (l *RedisLock) holderAge(raw string) time.Duration {
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return l.ttl
	}
	return l.now().Sub(time.Unix(ts, 0))
}
