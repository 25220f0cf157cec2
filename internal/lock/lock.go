// Package lock serializes work per key, either inside one process or across
// replicas sharing a Redis instance.
package lock

import (
	"context"
	"errors"
)

var ErrNotAcquired = errors.New("lock: not acquired")

// Release gives the lock back. It is safe to call more than once.
type Release func()

type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}
