// internal/dispatch/pool.go
package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"cobuilder/internal/common/logger"
	"cobuilder/internal/common/metrics"
	"cobuilder/internal/models"
)

// Pool runs jobs on a fixed set of goroutines fed by a bounded queue. Jobs
// run on contexts detached from the request that enqueued them.
type Pool struct {
	config PoolConfig
	run    JobFunc
	logger logger.Logger

	queue chan models.IngestJob
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	baseCtx context.Context
	abort   context.CancelFunc
}

func NewPool(config PoolConfig, run JobFunc, log logger.Logger) *Pool {
	if config.Workers < 1 {
		config.Workers = 1
	}
	baseCtx, abort := context.WithCancel(context.Background())
	p := &Pool{
		config:  config,
		run:     run,
		logger:  log.WithFields(map[string]interface{}{"component": "dispatch-pool"}),
		queue:   make(chan models.IngestJob, config.QueueSize),
		baseCtx: baseCtx,
		abort:   abort,
	}

	for i := 0; i < config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.logger.Info("dispatch pool started", map[string]interface{}{
		"workers":   config.Workers,
		"queueSize": config.QueueSize,
	})
	return p
}

// Dispatch enqueues job, waiting at most EnqueueTimeout for space.
func (p *Pool) Dispatch(ctx context.Context, job models.IngestJob) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}

	timer := time.NewTimer(p.config.EnqueueTimeout)
	defer timer.Stop()

	select {
	case p.queue <- job:
		metrics.DispatchQueueDepth.Set(float64(len(p.queue)))
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: %d jobs waiting", ErrQueueFull, len(p.queue))
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops intake and waits for queued and running jobs. When ctx
// expires first, running jobs are cancelled and ctx.Err() is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.abort()
		p.logger.Info("dispatch pool drained", nil)
		return nil
	case <-ctx.Done():
		p.abort()
		p.logger.Warn("dispatch pool shutdown timed out, cancelling running jobs", map[string]interface{}{
			"pending": len(p.queue),
		})
		return ctx.Err()
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for job := range p.queue {
		metrics.DispatchQueueDepth.Set(float64(len(p.queue)))
		p.execute(id, job)
	}
}

func (p *Pool) execute(workerID int, job models.IngestJob) {
	metrics.DispatchJobsActive.Inc()
	defer metrics.DispatchJobsActive.Dec()

	ctx, cancel := context.WithTimeout(p.baseCtx, p.config.JobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			metrics.IngestionOutcomes.WithLabelValues(metrics.OutcomePanicked).Inc()
			p.logger.Error("ingestion job panicked", map[string]interface{}{
				"worker": workerID,
				"jobId":  job.JobID,
				"panic":  fmt.Sprint(r),
				"stack":  string(debug.Stack()),
			})
		}
	}()

	if err := p.run(ctx, job); err != nil {
		p.logger.Debug("ingestion job ended with error", map[string]interface{}{
			"worker": workerID,
			"jobId":  job.JobID,
			"error":  err.Error(),
		})
	}
}
