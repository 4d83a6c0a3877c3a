// Package lock provides per-bill mutual exclusion with a bounded wait.
//
// Every mutating operation on a bill runs its validate-then-write sequence
// inside WithLock. Two backends exist: Local for a single process and Redis
// for several server instances sharing one database.
package lock

import (
	"context"
	"time"
)

//go:generate mockgen -source=lock.go -destination=mocklock/lock.go -package=mocklock

// Locker serializes work per key.
type Locker interface {
	// WithLock runs fn while holding the lock for key. If the lock cannot be
	// acquired within the configured timeout it returns an
	// *apperr.ResourceBusyError without calling fn. If ctx ends first, ctx's
	// error is returned.
	WithLock(ctx context.Context, key string, fn func(context.Context) error) error
}

// Observer receives lock acquisition results. *metrics.Metrics implements it.
type Observer interface {
	ObserveLockWait(backend string, waited time.Duration, acquired bool)
}

// BillKey returns the lock key for a bill.
func BillKey(billID string) string {
	return "bill:" + billID
}

type nopObserver struct{}

func (nopObserver) ObserveLockWait(string, time.Duration, bool) {}

func observerOrNop(o Observer) Observer {
	if o == nil {
		return nopObserver{}
	}
	return o
}
