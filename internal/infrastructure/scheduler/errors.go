package scheduler

import "errors"

// Sentinel errors returned by the sync runner
var (
	ErrSchedulerNotRunning = errors.New("scheduler is not running")
	ErrJobQueueFull        = errors.New("job queue is full")
	ErrInvalidConfig       = errors.New("invalid scheduler configuration")
)
