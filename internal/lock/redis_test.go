package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitbill/internal/apperr"
)

func newTestRedis(t *testing.T, timeout time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedis(client, RedisOptions{
		Timeout:    timeout,
		Expiry:     10 * time.Second,
		RetryDelay: 10 * time.Millisecond,
	}, nil), mr
}

func TestRedis_WithLock(t *testing.T) {
	l, mr := newTestRedis(t, time.Second)

	executed := false
	err := l.WithLock(context.Background(), BillKey("b1"), func(context.Context) error {
		executed = true
		assert.True(t, mr.Exists("lock:bill:b1"), "lock key should exist while held")
		return nil
	})
	require.NoError(t, err)
	assert.True(t, executed)
	assert.False(t, mr.Exists("lock:bill:b1"), "lock key should be removed after release")
}

func TestRedis_HeldElsewhereIsBusy(t *testing.T) {
	l, mr := newTestRedis(t, 100*time.Millisecond)
	require.NoError(t, mr.Set("lock:bill:b1", "other-holder"))

	called := false
	err := l.WithLock(context.Background(), BillKey("b1"), func(context.Context) error {
		called = true
		return nil
	})
	assert.False(t, called)
	assert.True(t, apperr.IsBusy(err), "got %v", err)
}

func TestRedis_PropagatesFnError(t *testing.T) {
	l, mr := newTestRedis(t, time.Second)
	boom := errors.New("boom")

	err := l.WithLock(context.Background(), "k", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("lock:k"))
}

func TestRedis_SerializesSameKey(t *testing.T) {
	l, _ := newTestRedis(t, 5*time.Second)

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithLock(context.Background(), "k", func(context.Context) error {
				v := counter
				time.Sleep(5 * time.Millisecond)
				counter = v + 1
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, counter)
}
