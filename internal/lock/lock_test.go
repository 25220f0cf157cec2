package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseMutualExclusion(t *testing.T, l Locker) {
	t.Helper()
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "post_1")
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inside.Add(-1)
			release()
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, maxInside.Load())
}

func TestKeyedMutualExclusion(t *testing.T) {
	k := NewKeyed()
	exerciseMutualExclusion(t, k)
	assert.Zero(t, k.size())
}

func TestKeyedIndependentKeys(t *testing.T) {
	k := NewKeyed()
	r1, err := k.Acquire(context.Background(), "a")
	require.NoError(t, err)
	defer r1()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r2, err := k.Acquire(ctx, "b")
	require.NoError(t, err)
	r2()
}

func TestKeyedHonoursContext(t *testing.T) {
	k := NewKeyed()
	release, err := k.Acquire(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = k.Acquire(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release()
	assert.Zero(t, k.size())
}

func newRedisLock(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	l := NewRedis(rdb, time.Minute)
	l.retry = 2 * time.Millisecond
	return l, mr
}

func TestRedisMutualExclusion(t *testing.T) {
	l, mr := newRedisLock(t)
	exerciseMutualExclusion(t, l)
	assert.False(t, mr.Exists("lock:publish:post_1"))
}

func TestRedisAcquireTimesOut(t *testing.T) {
	l, _ := newRedisLock(t)
	release, err := l.Acquire(context.Background(), "p")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "p")
	assert.ErrorIs(t, err, ErrNotAcquired)
}

func TestRedisReleaseKeepsForeignLock(t *testing.T) {
	l, mr := newRedisLock(t)
	release, err := l.Acquire(context.Background(), "p")
	require.NoError(t, err)

	// the lock expired and another holder took it
	require.NoError(t, mr.Set("lock:publish:p", "someone-else"))
	release()

	v, err := mr.Get("lock:publish:p")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", v)
}

func TestRedisTTLApplied(t *testing.T) {
	l, mr := newRedisLock(t)
	release, err := l.Acquire(context.Background(), "p")
	require.NoError(t, err)
	defer release()
	assert.Equal(t, time.Minute, mr.TTL("lock:publish:p"))
}
