package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/social-publisher/internal/metrics"
	"github.com/d60-Lab/social-publisher/internal/repository"
	"github.com/d60-Lab/social-publisher/pkg/logger"
)

// Janitor periodically removes published posts older than the retention
// window. Drafts are never touched.
type Janitor struct {
	posts     repository.PostRepository
	retention time.Duration
	interval  time.Duration
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewJanitor(posts repository.PostRepository, retention, interval time.Duration, m *metrics.Metrics) *Janitor {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Janitor{posts: posts, retention: retention, interval: interval, metrics: m, now: time.Now}
}

// Start runs the prune loop until the returned stop function is called.
// A zero retention disables the janitor.
func (j *Janitor) Start() func(context.Context) error {
	if j.retention <= 0 {
		return func(context.Context) error { return nil }
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	go j.loop(stop, done)

	var once sync.Once
	return func(ctx context.Context) error {
		once.Do(func() { close(stop) })
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (j *Janitor) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, err := j.PruneOnce(context.Background()); err != nil {
				logger.Warn("prune published posts failed", zap.Error(err))
			}
		}
	}
}

// PruneOnce deletes published posts whose publish time is before now minus
// the retention window.
func (j *Janitor) PruneOnce(ctx context.Context) (int, error) {
	if j.retention <= 0 {
		return 0, nil
	}
	cutoff := j.now().Add(-j.retention)
	n, err := j.posts.Prune(ctx, cutoff)
	if err != nil {
		return n, err
	}
	j.metrics.Pruned(n)
	if n > 0 {
		logger.Info("pruned published posts", zap.Int("count", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}
