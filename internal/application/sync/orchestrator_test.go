package syncapp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fieldcrm/backend/internal/domain/integration"
	"github.com/fieldcrm/backend/internal/domain/shared"
)

// inlineRunner executes submissions synchronously for deterministic tests
type inlineRunner struct {
	submitErr error
	names     []string
}

func (r *inlineRunner) Submit(name string, fn func(ctx context.Context)) error {
	if r.submitErr != nil {
		return r.submitErr
	}
	r.names = append(r.names, name)
	fn(context.Background())
	return nil
}

// memoryIntegrationRepo is an in-memory integration store
type memoryIntegrationRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*integration.Integration
}

func newMemoryIntegrationRepo(items ...*integration.Integration) *memoryIntegrationRepo {
	repo := &memoryIntegrationRepo{items: make(map[uuid.UUID]*integration.Integration)}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func (r *memoryIntegrationRepo) FindByID(_ context.Context, id uuid.UUID) (*integration.Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	integ, ok := r.items[id]
	if !ok || integ.IsDeleted {
		return nil, shared.ErrNotFound
	}
	return integ, nil
}

func (r *memoryIntegrationRepo) FindByName(_ context.Context, name string) (*integration.Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, integ := range r.items {
		if integ.Name == name && !integ.IsDeleted {
			return integ, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memoryIntegrationRepo) FindAllActive(_ context.Context) ([]integration.Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]integration.Integration, 0, len(r.items))
	for _, integ := range r.items {
		if integ.IsRunnable() {
			out = append(out, *integ)
		}
	}
	return out, nil
}

func (r *memoryIntegrationRepo) Save(_ context.Context, integ *integration.Integration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[integ.ID] = integ
	return nil
}

// trackingJobRepo stores jobs by task ID
type trackingJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*integration.SyncJob
}

func newTrackingJobRepo() *trackingJobRepo {
	return &trackingJobRepo{jobs: make(map[string]*integration.SyncJob)}
}

func (r *trackingJobRepo) Create(_ context.Context, job *integration.SyncJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.TaskID] = job
	return nil
}

func (r *trackingJobRepo) Update(_ context.Context, job *integration.SyncJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.TaskID] = job
	return nil
}

func (r *trackingJobRepo) FindByTaskID(_ context.Context, taskID string) (*integration.SyncJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[taskID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return job, nil
}

func (r *trackingJobRepo) FindRecentForIntegration(_ context.Context, integrationID uuid.UUID, limit int) ([]integration.SyncJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]integration.SyncJob, 0)
	for _, job := range r.jobs {
		if job.IntegrationID == integrationID {
			out = append(out, *job)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func newTestOrchestrator(t *testing.T, integs *memoryIntegrationRepo, jobs *trackingJobRepo, source *stubSource, runner Runner) *Orchestrator {
	engine, err := NewEngine(testEngineConfig(), source, newMemoryWriter(), jobs, nil, zap.NewNop())
	require.NoError(t, err)
	return NewOrchestrator(integs, jobs, engine, runner, zap.NewNop())
}

func TestOrchestratorStart(t *testing.T) {
	t.Run("runs the job and returns its id immediately", func(t *testing.T) {
		integ := testIntegration(t, 2)
		jobs := newTrackingJobRepo()
		source := &stubSource{records: []integration.ExternalRecord{
			record("Code", "A", "Name", "Apple"),
		}}
		runner := &inlineRunner{}
		orch := newTestOrchestrator(t, newMemoryIntegrationRepo(integ), jobs, source, runner)

		job, err := orch.Start(context.Background(), integ.ID, integration.SyncKindNomenklatura)
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.NotEmpty(t, job.TaskID)
		require.Len(t, runner.names, 1)
		assert.Contains(t, runner.names[0], "sync-nomenklatura-")

		// The inline runner executed synchronously; polling sees completion
		snapshot, err := orch.Status(context.Background(), job.TaskID)
		require.NoError(t, err)
		assert.Equal(t, integration.SyncJobStatusCompleted, snapshot.Status)
		assert.Equal(t, 1, snapshot.CreatedItems)
	})

	t.Run("unknown integration is NotFound", func(t *testing.T) {
		orch := newTestOrchestrator(t, newMemoryIntegrationRepo(), newTrackingJobRepo(), &stubSource{}, &inlineRunner{})
		_, err := orch.Start(context.Background(), uuid.New(), integration.SyncKindClients)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("disabled integration is NotFound", func(t *testing.T) {
		integ := testIntegration(t, 2)
		integ.Disable()
		orch := newTestOrchestrator(t, newMemoryIntegrationRepo(integ), newTrackingJobRepo(), &stubSource{}, &inlineRunner{})
		_, err := orch.Start(context.Background(), integ.ID, integration.SyncKindClients)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("invalid kind is rejected before any job exists", func(t *testing.T) {
		integ := testIntegration(t, 2)
		jobs := newTrackingJobRepo()
		orch := newTestOrchestrator(t, newMemoryIntegrationRepo(integ), jobs, &stubSource{}, &inlineRunner{})
		_, err := orch.Start(context.Background(), integ.ID, integration.SyncKind("orders"))
		require.Error(t, err)
		assert.Empty(t, jobs.jobs)
	})

	t.Run("scheduling failure closes out the job", func(t *testing.T) {
		integ := testIntegration(t, 2)
		jobs := newTrackingJobRepo()
		runner := &inlineRunner{submitErr: errors.New("queue full")}
		orch := newTestOrchestrator(t, newMemoryIntegrationRepo(integ), jobs, &stubSource{}, runner)

		_, err := orch.Start(context.Background(), integ.ID, integration.SyncKindNomenklatura)
		require.Error(t, err)

		// The persisted job must not be stuck in a non-terminal state
		for _, job := range jobs.jobs {
			assert.Equal(t, integration.SyncJobStatusError, job.Status)
		}
	})
}

func TestOrchestratorPanicGuard(t *testing.T) {
	integ := testIntegration(t, 2)
	jobs := newTrackingJobRepo()
	// A nil writer makes the engine panic on the first upsert
	engine, err := NewEngine(testEngineConfig(), &stubSource{records: []integration.ExternalRecord{
		record("Code", "A", "Name", "Apple"),
	}}, nil, jobs, nil, zap.NewNop())
	require.NoError(t, err)
	orch := NewOrchestrator(newMemoryIntegrationRepo(integ), jobs, engine, &inlineRunner{}, zap.NewNop())

	job, err := orch.Start(context.Background(), integ.ID, integration.SyncKindNomenklatura)
	require.NoError(t, err)

	snapshot, err := orch.Status(context.Background(), job.TaskID)
	require.NoError(t, err)
	assert.Equal(t, integration.SyncJobStatusError, snapshot.Status)
	assert.Contains(t, snapshot.ErrorDetails, "unexpected failure")
	require.NotNil(t, snapshot.EndTime)
}

func TestOrchestratorStatus(t *testing.T) {
	orch := newTestOrchestrator(t, newMemoryIntegrationRepo(), newTrackingJobRepo(), &stubSource{}, &inlineRunner{})
	_, err := orch.Status(context.Background(), "no-such-task")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestOrchestratorListIntegrations(t *testing.T) {
	active := testIntegration(t, 2)
	disabled := testIntegration(t, 2)
	disabled.Disable()
	deleted := testIntegration(t, 2)
	deleted.Delete()

	orch := newTestOrchestrator(t, newMemoryIntegrationRepo(active, disabled, deleted), newTrackingJobRepo(), &stubSource{}, &inlineRunner{})

	list, err := orch.ListIntegrations(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, active.ID, list[0].ID)
}

func TestOrchestratorConcurrentJobs(t *testing.T) {
	// Multiple jobs for different integrations share no mutable state;
	// a slow run must not block another trigger
	integA := testIntegration(t, 1)
	integB := testIntegration(t, 1)
	jobs := newTrackingJobRepo()
	source := &stubSource{records: []integration.ExternalRecord{
		record("Code", "A", "Name", "Apple"),
		record("Code", "B", "Name", "Banana"),
	}}

	engine, err := NewEngine(testEngineConfig(), source, newMemoryWriter(), jobs, nil, zap.NewNop())
	require.NoError(t, err)

	var wg sync.WaitGroup
	asyncRunner := runnerFunc(func(name string, fn func(ctx context.Context)) error {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(context.Background())
		}()
		return nil
	})
	orch := NewOrchestrator(newMemoryIntegrationRepo(integA, integB), jobs, engine, asyncRunner, zap.NewNop())

	jobA, err := orch.Start(context.Background(), integA.ID, integration.SyncKindNomenklatura)
	require.NoError(t, err)
	jobB, err := orch.Start(context.Background(), integB.ID, integration.SyncKindClients)
	require.NoError(t, err)
	assert.NotEqual(t, jobA.TaskID, jobB.TaskID)

	wg.Wait()

	waitTerminal := func(taskID string) integration.SyncJobStatus {
		deadline := time.Now().Add(time.Second)
		for time.Now().Before(deadline) {
			snap, err := orch.Status(context.Background(), taskID)
			require.NoError(t, err)
			if snap.Status.IsTerminal() {
				return snap.Status
			}
			time.Sleep(time.Millisecond)
		}
		t.Fatalf("job %s never reached a terminal state", taskID)
		return ""
	}
	assert.Equal(t, integration.SyncJobStatusCompleted, waitTerminal(jobA.TaskID))
	assert.Equal(t, integration.SyncJobStatusCompleted, waitTerminal(jobB.TaskID))
}

// runnerFunc adapts a function to the Runner port
type runnerFunc func(name string, fn func(ctx context.Context)) error

func (f runnerFunc) Submit(name string, fn func(ctx context.Context)) error {
	return f(name, fn)
}
