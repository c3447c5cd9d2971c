// Package distlock provides the best-effort distributed lock the scheduler
// takes around each tick so that running more than one replica does not
// double-enqueue a recurring job. Redis (SET NX with a TTL) when a client
// is available, PostgreSQL advisory locks otherwise — both release on
// crash, via TTL expiry or session teardown respectively.
package distlock

import (
	"context"
	"database/sql"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistLock is one acquire/release cycle. A value is single-use and
// single-goroutine; concurrent holders each construct their own.
type DistLock interface {
	// Acquire attempts the lock without blocking. ok=false means another
	// holder has it.
	Acquire(ctx context.Context) (bool, error)
	// Release gives the lock up if this value still owns it.
	Release(ctx context.Context) error
}

// NewLock picks the backend: Redis when a client is supplied (works across
// hosts), PostgreSQL advisory locks otherwise.
func NewLock(redisClient *redis.Client, db *sql.DB, key string, ttl time.Duration) DistLock {
	if redisClient != nil {
		return NewRedisLock(redisClient, key, ttl)
	}
	return NewPGAdvisoryLock(db, key)
}

// PGAdvisoryLock implements DistLock over pg_try_advisory_lock. Advisory
// locks are session-scoped: a dropped connection releases the lock, which
// stands in for the TTL the Redis backend has.
type PGAdvisoryLock struct {
	db     *sql.DB
	lockID int64
}

// NewPGAdvisoryLock derives the numeric advisory-lock ID from key by FNV
// hash, so the same key names the same lock on every replica.
func NewPGAdvisoryLock(db *sql.DB, key string) *PGAdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &PGAdvisoryLock{db: db, lockID: int64(h.Sum64())}
}

func (l *PGAdvisoryLock) Acquire(ctx context.Context) (bool, error) {
	var acquired bool
	err := l.db.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired)
	return acquired, err
}

func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID)
	return err
}
