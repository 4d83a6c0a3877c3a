package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"

	"github.com/mmynk/splitbill/internal/apperr"
)

var _ Locker = (*Redis)(nil)

// RedisOptions configures the distributed lock.
type RedisOptions struct {
	// Timeout bounds how long WithLock waits for the lock.
	Timeout time.Duration
	// Expiry is how long a held lock survives if its holder dies.
	Expiry time.Duration
	// RetryDelay is the pause between acquisition attempts.
	RetryDelay time.Duration
}

// DefaultRedisOptions returns options with a 5s wait and a 30s expiry.
func DefaultRedisOptions() RedisOptions {
	return RedisOptions{
		Timeout:    5 * time.Second,
		Expiry:     30 * time.Second,
		RetryDelay: 50 * time.Millisecond,
	}
}

// Redis is a Locker backed by redsync, for deployments with more than one
// server instance.
type Redis struct {
	rs       *redsync.Redsync
	opts     RedisOptions
	observer Observer
}

// NewRedis creates a Redis locker on top of client. observer may be nil.
func NewRedis(client redis.UniversalClient, opts RedisOptions, observer Observer) *Redis {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRedisOptions().RetryDelay
	}
	if opts.Expiry <= 0 {
		opts.Expiry = DefaultRedisOptions().Expiry
	}
	return &Redis{
		rs:       redsync.New(goredis.NewPool(client)),
		opts:     opts,
		observer: observerOrNop(observer),
	}
}

// WithLock implements Locker.
func (r *Redis) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	tries := max(1, int(r.opts.Timeout/r.opts.RetryDelay))
	mutex := r.rs.NewMutex(
		"lock:"+key,
		redsync.WithExpiry(r.opts.Expiry),
		redsync.WithTries(tries),
		redsync.WithRetryDelay(r.opts.RetryDelay),
	)

	start := time.Now()
	err := mutex.LockContext(ctx)
	waited := time.Since(start)
	r.observer.ObserveLockWait("redis", waited, err == nil)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isContention(err) {
			return &apperr.ResourceBusyError{Resource: key, Waited: waited}
		}
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	defer func() {
		// Release even if the request context was cancelled mid-operation.
		if ok, err := mutex.UnlockContext(context.WithoutCancel(ctx)); !ok || err != nil {
			slog.Error("failed to release lock", "key", key, "unlock_ok", ok, "error", err)
		}
	}()

	return fn(ctx)
}

// isContention reports whether err means another holder has the lock.
func isContention(err error) bool {
	var taken *redsync.ErrTaken
	return errors.Is(err, redsync.ErrFailed) ||
		errors.As(err, &taken) ||
		strings.Contains(err.Error(), "lock already taken")
}
