package lock

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/mmynk/splitbill/internal/apperr"
)

var _ Locker = (*Local)(nil)

// Local is an in-process Locker backed by one weighted semaphore per key.
// Entries are reference counted and dropped once no caller holds or waits on
// them.
type Local struct {
	timeout  time.Duration
	observer Observer

	mu   sync.Mutex
	keys map[string]*localEntry
}

type localEntry struct {
	sem  *semaphore.Weighted
	refs int
}

// NewLocal creates a Local locker. observer may be nil.
func NewLocal(timeout time.Duration, observer Observer) *Local {
	return &Local{
		timeout:  timeout,
		observer: observerOrNop(observer),
		keys:     make(map[string]*localEntry),
	}
}

// WithLock implements Locker.
func (l *Local) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := l.ref(key)
	defer l.unref(key)

	waitCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	start := time.Now()
	err := entry.sem.Acquire(waitCtx, 1)
	waited := time.Since(start)
	l.observer.ObserveLockWait("local", waited, err == nil)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &apperr.ResourceBusyError{Resource: key, Waited: waited}
	}
	defer entry.sem.Release(1)

	return fn(ctx)
}

func (l *Local) ref(key string) *localEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.keys[key]
	if !ok {
		entry = &localEntry{sem: semaphore.NewWeighted(1)}
		l.keys[key] = entry
	}
	entry.refs++
	return entry
}

func (l *Local) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.keys[key]
	entry.refs--
	if entry.refs == 0 {
		delete(l.keys, key)
	}
}

// size returns the number of live keys.
func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}
