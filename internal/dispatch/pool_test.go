package dispatch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cobuilder/internal/common/config"
	"cobuilder/internal/common/logger"
	"cobuilder/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() PoolConfig {
	return PoolConfig{
		Workers:        2,
		QueueSize:      4,
		JobTimeout:     time.Second,
		EnqueueTimeout: 20 * time.Millisecond,
	}
}

func job(id string) models.IngestJob {
	return models.IngestJob{JobID: id, ChannelID: "C123", MessageTs: "1.0"}
}

// ==========================
// Pool Tests
// ==========================

func TestPool_RunsDispatchedJobs(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}

	pool := NewPool(createTestConfig(), func(_ context.Context, j models.IngestJob) error {
		mu.Lock()
		seen[j.JobID] = true
		mu.Unlock()
		return nil
	}, logger.NewTestLogger(t))

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, pool.Dispatch(context.Background(), job(id)))
	}
	require.NoError(t, pool.Shutdown(context.Background()))

	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": true}, seen)
}

func TestPool_JobOutlivesRequestContext(t *testing.T) {
	done := make(chan error, 1)
	pool := NewPool(createTestConfig(), func(ctx context.Context, _ models.IngestJob) error {
		time.Sleep(20 * time.Millisecond)
		done <- ctx.Err()
		return nil
	}, logger.NewTestLogger(t))

	reqCtx, cancel := context.WithCancel(context.Background())
	require.NoError(t, pool.Dispatch(reqCtx, job("a")))
	cancel()

	assert.NoError(t, <-done)
	require.NoError(t, pool.Shutdown(context.Background()))
}

func TestPool_QueueFull(t *testing.T) {
	release := make(chan struct{})
	cfg := createTestConfig()
	cfg.Workers = 1
	cfg.QueueSize = 1

	pool := NewPool(cfg, func(_ context.Context, _ models.IngestJob) error {
		<-release
		return nil
	}, logger.NewTestLogger(t))

	require.NoError(t, pool.Dispatch(context.Background(), job("running")))
	// wait for the worker to pick up the first job so the queue is empty
	require.Eventually(t, func() bool { return len(pool.queue) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, pool.Dispatch(context.Background(), job("queued")))

	err := pool.Dispatch(context.Background(), job("rejected"))
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
	require.NoError(t, pool.Shutdown(context.Background()))
}

func TestPool_RecoversFromPanics(t *testing.T) {
	var ran atomic.Int32
	pool := NewPool(createTestConfig(), func(_ context.Context, j models.IngestJob) error {
		ran.Add(1)
		if j.JobID == "boom" {
			panic("nil mapping")
		}
		return nil
	}, logger.NewTestLogger(t))

	require.NoError(t, pool.Dispatch(context.Background(), job("boom")))
	require.NoError(t, pool.Dispatch(context.Background(), job("ok")))
	require.NoError(t, pool.Shutdown(context.Background()))

	assert.Equal(t, int32(2), ran.Load())
}

func TestPool_JobTimeout(t *testing.T) {
	cfg := createTestConfig()
	cfg.JobTimeout = 10 * time.Millisecond
	result := make(chan error, 1)

	pool := NewPool(cfg, func(ctx context.Context, _ models.IngestJob) error {
		<-ctx.Done()
		result <- ctx.Err()
		return ctx.Err()
	}, logger.NewTestLogger(t))

	require.NoError(t, pool.Dispatch(context.Background(), job("slow")))
	assert.ErrorIs(t, <-result, context.DeadlineExceeded)
	require.NoError(t, pool.Shutdown(context.Background()))
}

func TestPool_ShutdownRejectsNewJobs(t *testing.T) {
	pool := NewPool(createTestConfig(), func(context.Context, models.IngestJob) error { return nil }, logger.NewTestLogger(t))
	require.NoError(t, pool.Shutdown(context.Background()))

	assert.ErrorIs(t, pool.Dispatch(context.Background(), job("late")), ErrPoolClosed)
	assert.NoError(t, pool.Shutdown(context.Background()))
}

func TestPool_ShutdownDeadlineCancelsRunningJobs(t *testing.T) {
	cfg := createTestConfig()
	cfg.JobTimeout = time.Minute
	cancelled := make(chan struct{})

	pool := NewPool(cfg, func(ctx context.Context, _ models.IngestJob) error {
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	}, logger.NewTestLogger(t))
	require.NoError(t, pool.Dispatch(context.Background(), job("stuck")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, pool.Shutdown(ctx), context.DeadlineExceeded)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("running job was not cancelled")
	}
}

// ==========================
// Camunda Dispatcher Tests
// ==========================

type fakeStarter struct {
	processID string
	variables interface{}
	err       error
}

func (f *fakeStarter) StartProcess(_ context.Context, processID string, variables interface{}) (int64, error) {
	f.processID, f.variables = processID, variables
	return 42, f.err
}

func TestCamundaDispatcher_StartsProcess(t *testing.T) {
	starter := &fakeStarter{}
	d := NewCamundaDispatcher(starter, "slack-task-ingestion", logger.NewTestLogger(t))

	require.NoError(t, d.Dispatch(context.Background(), job("a")))
	assert.Equal(t, "slack-task-ingestion", starter.processID)
	assert.Equal(t, job("a"), starter.variables)
}

func TestCamundaDispatcher_StartError(t *testing.T) {
	d := NewCamundaDispatcher(&fakeStarter{err: errors.New("unavailable")}, "p", logger.NewTestLogger(t))

	err := d.Dispatch(context.Background(), job("a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
}

func TestLoadPoolConfig(t *testing.T) {
	cfg := LoadPoolConfig(&config.Config{Dispatch: config.DispatchConfig{Workers: 8, JobTimeout: 30000}})
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 100, cfg.QueueSize)
	assert.Equal(t, 30*time.Second, cfg.JobTimeout)
}
