package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldcrm/backend/internal/domain/integration"
	"github.com/fieldcrm/backend/internal/domain/shared"
	"github.com/fieldcrm/backend/internal/infrastructure/persistence/models"
)

// GormSyncJobRepository implements SyncJobRepository using GORM
type GormSyncJobRepository struct {
	db *gorm.DB
}

// NewGormSyncJobRepository creates a new GormSyncJobRepository
func NewGormSyncJobRepository(db *gorm.DB) *GormSyncJobRepository {
	return &GormSyncJobRepository{db: db}
}

// Create persists a newly created job
func (r *GormSyncJobRepository) Create(ctx context.Context, job *integration.SyncJob) error {
	model := models.SyncJobModelFromDomain(job)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return classifyWriteError(err)
	}
	return nil
}

// Update persists the job's current counters and state
func (r *GormSyncJobRepository) Update(ctx context.Context, job *integration.SyncJob) error {
	model := models.SyncJobModelFromDomain(job)
	result := r.db.WithContext(ctx).Model(&models.SyncJobModel{}).
		Where("task_id = ?", job.TaskID).
		Updates(map[string]any{
			"status":          model.Status,
			"total_items":     model.TotalItems,
			"processed_items": model.ProcessedItems,
			"created_items":   model.CreatedItems,
			"updated_items":   model.UpdatedItems,
			"error_items":     model.ErrorItems,
			"message":         model.Message,
			"error_details":   model.ErrorDetails,
			"end_time":        model.EndTime,
			"updated_at":      model.UpdatedAt,
		})
	if result.Error != nil {
		return classifyWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByTaskID finds a job by its opaque task identifier
func (r *GormSyncJobRepository) FindByTaskID(ctx context.Context, taskID string) (*integration.SyncJob, error) {
	var model models.SyncJobModel
	if err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindRecentForIntegration lists the most recent jobs for an integration
func (r *GormSyncJobRepository) FindRecentForIntegration(ctx context.Context, integrationID uuid.UUID, limit int) ([]integration.SyncJob, error) {
	if limit <= 0 {
		limit = 20
	}
	var jobModels []models.SyncJobModel
	if err := r.db.WithContext(ctx).
		Where("integration_id = ?", integrationID).
		Order("start_time DESC").
		Limit(limit).
		Find(&jobModels).Error; err != nil {
		return nil, err
	}

	jobs := make([]integration.SyncJob, len(jobModels))
	for i, model := range jobModels {
		jobs[i] = *model.ToDomain()
	}
	return jobs, nil
}
