package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldcrm/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Sync Job Types
// ---------------------------------------------------------------------------

// SyncKind identifies which catalog entity a sync run reconciles
type SyncKind string

const (
	SyncKindNomenklatura SyncKind = "nomenklatura"
	SyncKindClients      SyncKind = "clients"
)

// IsValid returns true if the kind is valid
func (k SyncKind) IsValid() bool {
	switch k {
	case SyncKindNomenklatura, SyncKindClients:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncKind
func (k SyncKind) String() string {
	return string(k)
}

// SyncJobStatus represents the state of a sync job.
// Transitions: fetching -> processing -> completed, with error reachable
// from fetching and processing. Completed and error are terminal.
type SyncJobStatus string

const (
	SyncJobStatusFetching   SyncJobStatus = "fetching"
	SyncJobStatusProcessing SyncJobStatus = "processing"
	SyncJobStatusCompleted  SyncJobStatus = "completed"
	SyncJobStatusError      SyncJobStatus = "error"
)

// IsTerminal returns true for states no transition may leave
func (s SyncJobStatus) IsTerminal() bool {
	return s == SyncJobStatusCompleted || s == SyncJobStatusError
}

// String returns the string representation of SyncJobStatus
func (s SyncJobStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// SyncJob Entity
// ---------------------------------------------------------------------------

// SyncJob is the persisted progress and outcome record for one sync run.
// It is created by the orchestrator and mutated only by the reconciliation
// engine that owns the run; external readers poll it by task ID.
type SyncJob struct {
	shared.BaseEntity
	// TaskID is the opaque identifier polled by clients
	TaskID        string
	IntegrationID uuid.UUID
	Kind          SyncKind
	Status        SyncJobStatus

	// Counters, all monotonically non-decreasing within a run
	TotalItems     int
	ProcessedItems int
	CreatedItems   int
	UpdatedItems   int
	ErrorItems     int

	// Message is a human summary; ErrorDetails carries failure diagnostics
	Message      string
	ErrorDetails string

	StartTime time.Time
	EndTime   *time.Time
}

// NewSyncJob creates a sync job in the fetching state
func NewSyncJob(integrationID uuid.UUID, kind SyncKind) (*SyncJob, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_SYNC_KIND", "Unknown sync kind: "+string(kind))
	}
	now := time.Now()
	job := &SyncJob{
		BaseEntity:    shared.NewBaseEntity(),
		TaskID:        uuid.NewString(),
		IntegrationID: integrationID,
		Kind:          kind,
		Status:        SyncJobStatusFetching,
		StartTime:     now,
	}
	job.CreatedAt = now
	job.UpdatedAt = now
	return job, nil
}

// BeginProcessing records the fetched total and moves the job to processing
func (j *SyncJob) BeginProcessing(totalItems int) error {
	if j.Status != SyncJobStatusFetching {
		return shared.ErrInvalidState
	}
	if totalItems < 0 {
		return shared.NewDomainError("INVALID_TOTAL", "Total items cannot be negative")
	}
	j.TotalItems = totalItems
	j.Status = SyncJobStatusProcessing
	j.UpdatedAt = time.Now()
	return nil
}

// AddProgress accumulates per-batch counters. Deltas must be non-negative so
// counters stay monotonic, and processed items never exceed the total.
func (j *SyncJob) AddProgress(processed, created, updated, errored int) error {
	if j.Status.IsTerminal() {
		return shared.ErrInvalidState
	}
	if processed < 0 || created < 0 || updated < 0 || errored < 0 {
		return shared.NewDomainError("INVALID_PROGRESS", "Progress deltas cannot be negative")
	}
	if j.ProcessedItems+processed > j.TotalItems {
		return shared.NewDomainError("INVALID_PROGRESS", "Processed items cannot exceed total items")
	}
	j.ProcessedItems += processed
	j.CreatedItems += created
	j.UpdatedItems += updated
	j.ErrorItems += errored
	j.UpdatedAt = time.Now()
	return nil
}

// Complete transitions the job to its successful terminal state
func (j *SyncJob) Complete(message string) error {
	if j.Status.IsTerminal() {
		return shared.ErrInvalidState
	}
	now := time.Now()
	j.Status = SyncJobStatusCompleted
	j.Message = message
	j.EndTime = &now
	j.UpdatedAt = now
	return nil
}

// Fail transitions the job to its failed terminal state
func (j *SyncJob) Fail(details string) error {
	if j.Status.IsTerminal() {
		return shared.ErrInvalidState
	}
	now := time.Now()
	j.Status = SyncJobStatusError
	j.ErrorDetails = details
	j.Message = "Sync failed"
	j.EndTime = &now
	j.UpdatedAt = now
	return nil
}

// ProgressPercent returns floor(processed/total*100), 0 when total is 0
func (j *SyncJob) ProgressPercent() int {
	if j.TotalItems <= 0 {
		return 0
	}
	return j.ProcessedItems * 100 / j.TotalItems
}

// Summary composes the human-readable completion message
func (j *SyncJob) Summary() string {
	return fmt.Sprintf("Created %d, updated %d, errors %d of %d items",
		j.CreatedItems, j.UpdatedItems, j.ErrorItems, j.TotalItems)
}

// ---------------------------------------------------------------------------
// SyncJobRepository Interface
// ---------------------------------------------------------------------------

// SyncJobRepository defines the interface for persisting sync jobs
type SyncJobRepository interface {
	// Create persists a newly created job
	Create(ctx context.Context, job *SyncJob) error

	// Update persists the job's current counters and state
	Update(ctx context.Context, job *SyncJob) error

	// FindByTaskID finds a job by its opaque task identifier
	FindByTaskID(ctx context.Context, taskID string) (*SyncJob, error)

	// FindRecentForIntegration lists the most recent jobs for an integration
	FindRecentForIntegration(ctx context.Context, integrationID uuid.UUID, limit int) ([]SyncJob, error)
}
