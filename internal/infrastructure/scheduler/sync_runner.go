package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// syncTask is one submitted unit of work
type syncTask struct {
	name string
	fn   func(ctx context.Context)
}

// ---------------------------------------------------------------------------
// SyncRunnerConfig
// ---------------------------------------------------------------------------

// SyncRunnerConfig holds configuration for the sync runner
type SyncRunnerConfig struct {
	// MaxConcurrentJobs is the number of workers draining the queue
	MaxConcurrentJobs int
	// QueueSize bounds how many submitted runs may wait for a worker
	QueueSize int
	// JobTimeout is the maximum time a single run may take
	JobTimeout time.Duration
}

// DefaultSyncRunnerConfig returns default configuration
func DefaultSyncRunnerConfig() SyncRunnerConfig {
	return SyncRunnerConfig{
		MaxConcurrentJobs: 4,
		QueueSize:         50,
		JobTimeout:        30 * time.Minute,
	}
}

// Validate validates the configuration
func (c *SyncRunnerConfig) Validate() error {
	if c.MaxConcurrentJobs <= 0 {
		return ErrInvalidConfig
	}
	if c.QueueSize <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// SyncRunner
// ---------------------------------------------------------------------------

// SyncRunner executes submitted sync runs on a bounded worker pool. Each
// run gets a context derived from the runner's lifetime, so in-flight runs
// are cancelled on service shutdown rather than abandoned mid-write.
type SyncRunner struct {
	config SyncRunnerConfig
	logger *zap.Logger

	tasks     chan syncTask
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewSyncRunner creates a new sync runner
func NewSyncRunner(config SyncRunnerConfig, logger *zap.Logger) (*SyncRunner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &SyncRunner{
		config: config,
		logger: logger,
		tasks:  make(chan syncTask, config.QueueSize),
	}, nil
}

// Start starts the worker pool
func (r *SyncRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = true
	r.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for i := 0; i < r.config.MaxConcurrentJobs; i++ {
		r.wg.Add(1)
		go r.worker(ctx, i)
	}

	r.logger.Info("Sync runner started",
		zap.Int("workers", r.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", r.config.JobTimeout),
	)
	return nil
}

// Stop gracefully stops the runner, waiting for in-flight runs until the
// given context expires
func (r *SyncRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return nil
	}
	r.isRunning = false
	r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
	close(r.tasks)

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("Sync runner stopped gracefully")
		return nil
	case <-ctx.Done():
		r.logger.Warn("Sync runner stop timed out")
		return ctx.Err()
	}
}

// Submit queues one run for execution. The call never blocks: a full queue
// is reported to the caller instead of stalling the triggering request.
func (r *SyncRunner) Submit(name string, fn func(ctx context.Context)) error {
	r.mu.Lock()
	if !r.isRunning {
		r.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	r.mu.Unlock()

	select {
	case r.tasks <- syncTask{name: name, fn: fn}:
		r.logger.Debug("Sync run submitted", zap.String("run", name))
		return nil
	default:
		return ErrJobQueueFull
	}
}

// worker drains the task queue
func (r *SyncRunner) worker(ctx context.Context, workerID int) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("Sync worker stopping", zap.Int("worker_id", workerID))
			return
		case task, ok := <-r.tasks:
			if !ok {
				return
			}
			r.runTask(ctx, task, workerID)
		}
	}
}

// runTask executes one run with a timeout and a panic guard; a crashing
// run must not take its worker down with it
func (r *SyncRunner) runTask(ctx context.Context, task syncTask, workerID int) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Sync run panicked",
				zap.Int("worker_id", workerID),
				zap.String("run", task.name),
				zap.Any("panic", rec),
			)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, r.config.JobTimeout)
	defer cancel()

	started := time.Now()
	r.logger.Info("Sync run starting",
		zap.Int("worker_id", workerID),
		zap.String("run", task.name),
	)
	task.fn(runCtx)
	r.logger.Info("Sync run finished",
		zap.Int("worker_id", workerID),
		zap.String("run", task.name),
		zap.Duration("elapsed", time.Since(started)),
	)
}
