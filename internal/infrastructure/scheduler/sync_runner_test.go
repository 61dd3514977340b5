package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRunner(t *testing.T, config SyncRunnerConfig) *SyncRunner {
	t.Helper()
	runner, err := NewSyncRunner(config, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, runner.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = runner.Stop(ctx)
	})
	return runner
}

func TestSyncRunnerConfig_Validate(t *testing.T) {
	config := DefaultSyncRunnerConfig()
	assert.NoError(t, config.Validate())

	config.MaxConcurrentJobs = 0
	assert.ErrorIs(t, config.Validate(), ErrInvalidConfig)

	config = DefaultSyncRunnerConfig()
	config.QueueSize = -1
	assert.ErrorIs(t, config.Validate(), ErrInvalidConfig)

	config = DefaultSyncRunnerConfig()
	config.JobTimeout = 0
	assert.ErrorIs(t, config.Validate(), ErrInvalidConfig)
}

func TestSyncRunner_Submit(t *testing.T) {
	runner := newTestRunner(t, DefaultSyncRunnerConfig())

	var wg sync.WaitGroup
	wg.Add(1)
	ran := false
	err := runner.Submit("sync-test", func(ctx context.Context) {
		defer wg.Done()
		ran = true
	})
	require.NoError(t, err)
	wg.Wait()
	assert.True(t, ran)
}

func TestSyncRunner_SubmitBeforeStart(t *testing.T) {
	runner, err := NewSyncRunner(DefaultSyncRunnerConfig(), zap.NewNop())
	require.NoError(t, err)

	err = runner.Submit("too-early", func(ctx context.Context) {})
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestSyncRunner_QueueFull(t *testing.T) {
	config := SyncRunnerConfig{
		MaxConcurrentJobs: 1,
		QueueSize:         1,
		JobTimeout:        time.Minute,
	}
	runner := newTestRunner(t, config)

	block := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, runner.Submit("blocker", func(ctx context.Context) {
		close(started)
		<-block
	}))
	<-started

	// The single worker is busy; one task fits the queue, the next is refused
	require.NoError(t, runner.Submit("queued", func(ctx context.Context) {}))
	err := runner.Submit("overflow", func(ctx context.Context) {})
	assert.ErrorIs(t, err, ErrJobQueueFull)

	close(block)
}

func TestSyncRunner_ConcurrencyBound(t *testing.T) {
	config := SyncRunnerConfig{
		MaxConcurrentJobs: 2,
		QueueSize:         10,
		JobTimeout:        time.Minute,
	}
	runner := newTestRunner(t, config)

	var running, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		require.NoError(t, runner.Submit("bounded", func(ctx context.Context) {
			defer wg.Done()
			n := atomic.AddInt32(&running, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
		}))
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestSyncRunner_PanicGuard(t *testing.T) {
	runner := newTestRunner(t, DefaultSyncRunnerConfig())

	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, runner.Submit("crashing", func(ctx context.Context) {
		defer wg.Done()
		panic("boom")
	}))
	wg.Wait()

	// The worker survived the panic and still runs tasks
	wg.Add(1)
	ran := false
	require.NoError(t, runner.Submit("after-crash", func(ctx context.Context) {
		defer wg.Done()
		ran = true
	}))
	wg.Wait()
	assert.True(t, ran)
}

func TestSyncRunner_StopCancelsRunContext(t *testing.T) {
	runner, err := NewSyncRunner(DefaultSyncRunnerConfig(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, runner.Start(context.Background()))

	observed := make(chan error, 1)
	started := make(chan struct{})
	require.NoError(t, runner.Submit("long-run", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		observed <- ctx.Err()
	}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, runner.Stop(ctx))

	select {
	case err := <-observed:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("run context was not cancelled on stop")
	}
}

func TestSyncRunner_StartTwiceIsNoop(t *testing.T) {
	runner := newTestRunner(t, DefaultSyncRunnerConfig())
	assert.NoError(t, runner.Start(context.Background()))
}
