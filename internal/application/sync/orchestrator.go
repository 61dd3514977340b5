package syncapp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldcrm/backend/internal/domain/integration"
	"github.com/fieldcrm/backend/internal/domain/shared"
)

// Runner is the port for handing a sync run to an independently scheduled
// unit of concurrent execution. The submitted function receives a context
// that is cancelled only on service shutdown, not when the triggering
// request completes.
type Runner interface {
	Submit(name string, fn func(ctx context.Context)) error
}

// Orchestrator validates sync triggers, creates the progress record, and
// hands the run to the engine without blocking the caller. Progress is
// observed only by polling the SyncJob record afterwards.
type Orchestrator struct {
	integrations integration.IntegrationRepository
	jobs         integration.SyncJobRepository
	engine       *Engine
	runner       Runner
	logger       *zap.Logger
}

// NewOrchestrator creates a sync job orchestrator
func NewOrchestrator(
	integrations integration.IntegrationRepository,
	jobs integration.SyncJobRepository,
	engine *Engine,
	runner Runner,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		integrations: integrations,
		jobs:         jobs,
		engine:       engine,
		runner:       runner,
		logger:       logger,
	}
}

// Start validates the integration, creates a SyncJob in the fetching state,
// schedules the run, and returns the job immediately. Unknown, disabled, or
// soft-deleted integrations surface as shared.ErrNotFound.
func (o *Orchestrator) Start(ctx context.Context, integrationID uuid.UUID, kind integration.SyncKind) (*integration.SyncJob, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_SYNC_KIND", "Unknown sync kind: "+string(kind))
	}

	integ, err := o.integrations.FindByID(ctx, integrationID)
	if err != nil {
		return nil, err
	}
	if !integ.IsRunnable() {
		// Inactive reads the same as missing from the outside
		return nil, shared.ErrNotFound
	}

	job, err := integration.NewSyncJob(integ.ID, kind)
	if err != nil {
		return nil, err
	}
	if err := o.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create sync job: %w", err)
	}

	runName := fmt.Sprintf("sync-%s-%s", kind, job.TaskID)
	if err := o.runner.Submit(runName, func(runCtx context.Context) {
		o.execute(runCtx, integ, job)
	}); err != nil {
		// The job row exists but will never run; close it out
		if failErr := job.Fail(fmt.Sprintf("failed to schedule run: %v", err)); failErr == nil {
			if updErr := o.jobs.Update(ctx, job); updErr != nil {
				o.logger.Warn("Failed to persist unscheduled job", zap.Error(updErr))
			}
		}
		return nil, fmt.Errorf("failed to schedule sync run: %w", err)
	}

	o.logger.Info("Sync job started",
		zap.String("task_id", job.TaskID),
		zap.String("integration", integ.Name),
		zap.String("kind", kind.String()),
	)
	return job, nil
}

// execute runs the engine with a panic guard so a crashed run cannot orphan
// its SyncJob in a non-terminal state.
func (o *Orchestrator) execute(ctx context.Context, integ *integration.Integration, job *integration.SyncJob) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Sync run panicked",
				zap.String("task_id", job.TaskID),
				zap.Any("panic", r),
			)
			if err := job.Fail(fmt.Sprintf("unexpected failure: %v", r)); err == nil {
				if updErr := o.jobs.Update(context.WithoutCancel(ctx), job); updErr != nil {
					o.logger.Error("Failed to persist panicked job", zap.Error(updErr))
				}
			}
		}
	}()

	// Run owns its error handling; the returned error is already reflected
	// in the job record
	_ = o.engine.Run(ctx, integ, job)
}

// Status returns a snapshot of the sync job identified by task ID
func (o *Orchestrator) Status(ctx context.Context, taskID string) (*integration.SyncJob, error) {
	return o.jobs.FindByTaskID(ctx, taskID)
}

// Integration returns one integration by ID
func (o *Orchestrator) Integration(ctx context.Context, integrationID uuid.UUID) (*integration.Integration, error) {
	return o.integrations.FindByID(ctx, integrationID)
}

// ListIntegrations returns all integrations that syncs may be triggered for
func (o *Orchestrator) ListIntegrations(ctx context.Context) ([]integration.Integration, error) {
	return o.integrations.FindAllActive(ctx)
}

// RecentJobs lists the most recent runs for one integration
func (o *Orchestrator) RecentJobs(ctx context.Context, integrationID uuid.UUID, limit int) ([]integration.SyncJob, error) {
	if _, err := o.integrations.FindByID(ctx, integrationID); err != nil {
		return nil, err
	}
	return o.jobs.FindRecentForIntegration(ctx, integrationID, limit)
}
