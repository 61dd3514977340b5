package syncapp

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fieldcrm/backend/internal/domain/integration"
	"github.com/fieldcrm/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Ports
// ---------------------------------------------------------------------------

// CatalogWriter performs atomic upserts into the catalog store, keyed by
// (project, external code) among non-deleted rows. Implementations report
// transient write contention as shared.ErrConcurrencyConflict so the engine
// can retry.
type CatalogWriter interface {
	// UpsertNomenklatura creates or updates a nomenklatura entry.
	// Returns true when a new row was created.
	UpsertNomenklatura(ctx context.Context, projectID uuid.UUID, fields map[string]any) (bool, error)

	// UpsertClient creates or updates a client. Returns true when a new
	// row was created.
	UpsertClient(ctx context.Context, projectID uuid.UUID, fields map[string]any) (bool, error)
}

// PartitionCache invalidates cached catalog reads for one project after a
// sync run touched its rows.
type PartitionCache interface {
	Invalidate(ctx context.Context, projectID uuid.UUID) error
}

// ---------------------------------------------------------------------------
// EngineConfig
// ---------------------------------------------------------------------------

// EngineConfig holds the reconciliation engine's throttle and retry policy.
// The delays are deliberate: the catalog store is assumed to be a
// single-writer engine that long write bursts would starve.
type EngineConfig struct {
	// BatchDelay is slept before every batch after the first
	BatchDelay time.Duration
	// ItemYieldEvery inserts ItemYieldDelay after this many items in a batch
	ItemYieldEvery int
	ItemYieldDelay time.Duration
	// UpsertRetryAttempts bounds contention retries per item upsert
	UpsertRetryAttempts int
	// UpsertBackoffMin/Max bound the randomized unit delay; the delay
	// doubles each attempt
	UpsertBackoffMin time.Duration
	UpsertBackoffMax time.Duration
	// ProgressRetryAttempts bounds progress-persistence retries, with
	// linear backoff of ProgressRetryDelay per attempt
	ProgressRetryAttempts int
	ProgressRetryDelay    time.Duration
}

// DefaultEngineConfig returns the default reconciliation policy
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		BatchDelay:            500 * time.Millisecond,
		ItemYieldEvery:        10,
		ItemYieldDelay:        50 * time.Millisecond,
		UpsertRetryAttempts:   5,
		UpsertBackoffMin:      100 * time.Millisecond,
		UpsertBackoffMax:      500 * time.Millisecond,
		ProgressRetryAttempts: 3,
		ProgressRetryDelay:    100 * time.Millisecond,
	}
}

// Validate validates the configuration
func (c *EngineConfig) Validate() error {
	if c.ItemYieldEvery <= 0 {
		return shared.NewDomainError("INVALID_CONFIG", "ItemYieldEvery must be positive")
	}
	if c.UpsertRetryAttempts <= 0 || c.ProgressRetryAttempts <= 0 {
		return shared.NewDomainError("INVALID_CONFIG", "Retry attempts must be positive")
	}
	if c.UpsertBackoffMin <= 0 || c.UpsertBackoffMax < c.UpsertBackoffMin {
		return shared.NewDomainError("INVALID_CONFIG", "Backoff bounds are inverted")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Engine
// ---------------------------------------------------------------------------

// Engine reconciles fetched external records into the catalog store for one
// sync job at a time. Engines hold no per-run state and are safe to share
// across concurrently running jobs; each job owns its SyncJob row exclusively.
type Engine struct {
	config EngineConfig
	source integration.RecordSource
	writer CatalogWriter
	jobs   integration.SyncJobRepository
	cache  PartitionCache
	logger *zap.Logger
}

// NewEngine creates a reconciliation engine
func NewEngine(
	config EngineConfig,
	source integration.RecordSource,
	writer CatalogWriter,
	jobs integration.SyncJobRepository,
	cache PartitionCache,
	logger *zap.Logger,
) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		config: config,
		source: source,
		writer: writer,
		jobs:   jobs,
		cache:  cache,
		logger: logger,
	}, nil
}

// Run executes one sync job to completion. The job must be in the fetching
// state; on return it is in a terminal state and persisted. Failures inside
// the run are isolated per record, per item, or per batch; only fetch-phase
// errors fail the whole job.
func (e *Engine) Run(ctx context.Context, integ *integration.Integration, job *integration.SyncJob) error {
	log := e.logger.With(
		zap.String("task_id", job.TaskID),
		zap.String("integration", integ.Name),
		zap.String("kind", job.Kind.String()),
	)

	records, err := e.source.Fetch(ctx, integ, job.Kind)
	if err != nil {
		log.Error("Fetch phase failed", zap.Error(err))
		e.failJob(ctx, job, fmt.Sprintf("fetch failed: %v", err), log)
		return err
	}

	if len(records) == 0 {
		// Absence of data is a valid outcome, not an error
		if err := job.Complete("No data found"); err != nil {
			return err
		}
		e.persistJob(ctx, job, log)
		log.Info("Sync completed with no data")
		return nil
	}

	if err := job.BeginProcessing(len(records)); err != nil {
		return err
	}
	e.persistJob(ctx, job, log)
	log.Info("Processing fetched records", zap.Int("total", len(records)))

	parsed, rejected := e.parseRecords(records, job.Kind, log)
	if rejected > 0 {
		if err := job.AddProgress(rejected, 0, 0, rejected); err != nil {
			return err
		}
		e.persistJob(ctx, job, log)
	}

	chunkSize := integ.ChunkSize
	if chunkSize <= 0 {
		chunkSize = integration.DefaultChunkSize
	}

	for start := 0; start < len(parsed); start += chunkSize {
		if start > 0 {
			if err := sleepCtx(ctx, e.config.BatchDelay); err != nil {
				e.failJob(ctx, job, "run cancelled", log)
				return err
			}
		}

		end := start + chunkSize
		if end > len(parsed) {
			end = len(parsed)
		}
		batch := parsed[start:end]

		created, updated, errored := e.processBatch(ctx, integ.ProjectID, job.Kind, batch, log)
		if err := job.AddProgress(len(batch), created, updated, errored); err != nil {
			return err
		}
		e.persistJob(ctx, job, log)

		if err := ctx.Err(); err != nil {
			e.failJob(ctx, job, "run cancelled", log)
			return err
		}
	}

	if err := job.Complete(job.Summary()); err != nil {
		return err
	}
	e.persistJob(ctx, job, log)
	e.invalidateCache(ctx, integ.ProjectID, log)

	log.Info("Sync completed",
		zap.Int("total", job.TotalItems),
		zap.Int("created", job.CreatedItems),
		zap.Int("updated", job.UpdatedItems),
		zap.Int("errors", job.ErrorItems),
	)
	return nil
}

// parseRecords maps every fetched record; rejects are counted, not fatal
func (e *Engine) parseRecords(records []integration.ExternalRecord, kind integration.SyncKind, log *zap.Logger) ([]map[string]any, int) {
	parsed := make([]map[string]any, 0, len(records))
	rejected := 0
	for i, rec := range records {
		fields, err := MapRecord(rec, kind)
		if err != nil {
			rejected++
			log.Debug("Record rejected during mapping",
				zap.Int("record_index", i),
				zap.Error(err),
			)
			continue
		}
		parsed = append(parsed, fields)
	}
	return parsed, rejected
}

// processBatch upserts one batch. A contention failure that survives the
// retry budget abandons the remainder of the batch as errors; any other
// per-item failure is isolated to that item.
func (e *Engine) processBatch(ctx context.Context, projectID uuid.UUID, kind integration.SyncKind, batch []map[string]any, log *zap.Logger) (created, updated, errored int) {
	for i, fields := range batch {
		if i > 0 && i%e.config.ItemYieldEvery == 0 {
			if sleepCtx(ctx, e.config.ItemYieldDelay) != nil {
				errored += len(batch) - i
				return
			}
		}

		wasCreated, err := e.upsertWithRetry(ctx, projectID, kind, fields)
		if err != nil {
			if errors.Is(err, shared.ErrConcurrencyConflict) {
				// Retry budget exhausted: failure isolation moves up to
				// the batch, the rest of it is counted as errors
				remaining := len(batch) - i
				errored += remaining
				log.Warn("Write contention exhausted retries, abandoning batch",
					zap.Int("abandoned_items", remaining),
					zap.Error(err),
				)
				return
			}
			errored++
			log.Debug("Item upsert failed", zap.Error(err))
			continue
		}

		if wasCreated {
			created++
		} else {
			updated++
		}
	}
	return
}

// upsertWithRetry retries transient write contention with exponential
// backoff plus jitter; other errors return immediately.
func (e *Engine) upsertWithRetry(ctx context.Context, projectID uuid.UUID, kind integration.SyncKind, fields map[string]any) (bool, error) {
	var lastErr error
	for attempt := 0; attempt < e.config.UpsertRetryAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, e.backoffDelay(attempt)); err != nil {
				return false, lastErr
			}
		}

		created, err := e.upsert(ctx, projectID, kind, fields)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return false, err
		}
		lastErr = err
	}
	return false, lastErr
}

func (e *Engine) upsert(ctx context.Context, projectID uuid.UUID, kind integration.SyncKind, fields map[string]any) (bool, error) {
	switch kind {
	case integration.SyncKindNomenklatura:
		return e.writer.UpsertNomenklatura(ctx, projectID, fields)
	case integration.SyncKindClients:
		return e.writer.UpsertClient(ctx, projectID, fields)
	default:
		return false, shared.NewDomainError("INVALID_SYNC_KIND", "Unknown sync kind: "+string(kind))
	}
}

// backoffDelay doubles a jittered unit delay per attempt
func (e *Engine) backoffDelay(attempt int) time.Duration {
	spread := e.config.UpsertBackoffMax - e.config.UpsertBackoffMin
	unit := e.config.UpsertBackoffMin
	if spread > 0 {
		unit += time.Duration(rand.Int63n(int64(spread)))
	}
	return unit << (attempt - 1)
}

// persistJob writes progress counters with a short linear-backoff retry.
// A persistence failure is logged, never escalated: the observability path
// must not fail the job itself.
func (e *Engine) persistJob(ctx context.Context, job *integration.SyncJob, log *zap.Logger) {
	// Progress must still be written when the run context was cancelled,
	// otherwise a cancelled job would be orphaned mid-state
	ctx = context.WithoutCancel(ctx)
	var lastErr error
	for attempt := 1; attempt <= e.config.ProgressRetryAttempts; attempt++ {
		if lastErr = e.jobs.Update(ctx, job); lastErr == nil {
			return
		}
		if attempt < e.config.ProgressRetryAttempts {
			time.Sleep(time.Duration(attempt) * e.config.ProgressRetryDelay)
		}
	}
	log.Warn("Failed to persist sync progress", zap.Error(lastErr))
}

func (e *Engine) failJob(ctx context.Context, job *integration.SyncJob, details string, log *zap.Logger) {
	if err := job.Fail(details); err != nil {
		log.Warn("Job already terminal", zap.Error(err))
		return
	}
	e.persistJob(ctx, job, log)
}

func (e *Engine) invalidateCache(ctx context.Context, projectID uuid.UUID, log *zap.Logger) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Invalidate(ctx, projectID); err != nil {
		log.Warn("Failed to invalidate partition cache",
			zap.String("project_id", projectID.String()),
			zap.Error(err),
		)
	}
}

// sleepCtx sleeps unless the context is cancelled first
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
