// internal/dispatch/dispatch.go
package dispatch

import (
	"context"
	"errors"
	"time"

	"cobuilder/internal/common/config"
	"cobuilder/internal/models"
)

var (
	ErrQueueFull  = errors.New("DISPATCH_QUEUE_FULL")
	ErrPoolClosed = errors.New("DISPATCH_POOL_CLOSED")
)

// Dispatcher hands an acknowledged interaction to background processing.
// Dispatch returns once the job is durably queued, never after it ran.
type Dispatcher interface {
	Dispatch(ctx context.Context, job models.IngestJob) error
}

// JobFunc processes one job to completion.
type JobFunc func(ctx context.Context, job models.IngestJob) error

type PoolConfig struct {
	Workers        int
	QueueSize      int
	JobTimeout     time.Duration
	EnqueueTimeout time.Duration
}

func LoadPoolConfig(cfg *config.Config) PoolConfig {
	c := PoolConfig{
		Workers:        4,
		QueueSize:      100,
		JobTimeout:     2 * time.Minute,
		EnqueueTimeout: 500 * time.Millisecond,
	}
	if cfg == nil {
		return c
	}
	d := cfg.Dispatch
	if d.Workers > 0 {
		c.Workers = d.Workers
	}
	if d.QueueSize > 0 {
		c.QueueSize = d.QueueSize
	}
	if d.JobTimeout > 0 {
		c.JobTimeout = config.GetDuration(d.JobTimeout)
	}
	if d.EnqueueTimeout > 0 {
		c.EnqueueTimeout = config.GetDuration(d.EnqueueTimeout)
	}
	return c
}
