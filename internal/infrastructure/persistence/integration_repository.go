package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldcrm/backend/internal/domain/integration"
	"github.com/fieldcrm/backend/internal/domain/shared"
)

// GormIntegrationRepository implements IntegrationRepository using GORM
type GormIntegrationRepository struct {
	db *gorm.DB
}

// NewGormIntegrationRepository creates a new GormIntegrationRepository
func NewGormIntegrationRepository(db *gorm.DB) *GormIntegrationRepository {
	return &GormIntegrationRepository{db: db}
}

// FindByID finds an integration by its ID
func (r *GormIntegrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.Integration, error) {
	var integ integration.Integration
	if err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&integ).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &integ, nil
}

// FindByName finds a non-deleted integration by its unique name
func (r *GormIntegrationRepository) FindByName(ctx context.Context, name string) (*integration.Integration, error) {
	var integ integration.Integration
	if err := r.db.WithContext(ctx).
		Where("name = ? AND is_deleted = ?", name, false).
		First(&integ).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &integ, nil
}

// FindAllActive returns all enabled, non-deleted integrations
func (r *GormIntegrationRepository) FindAllActive(ctx context.Context) ([]integration.Integration, error) {
	var integrations []integration.Integration
	if err := r.db.WithContext(ctx).
		Where("is_enabled = ? AND is_deleted = ?", true, false).
		Order("name ASC").
		Find(&integrations).Error; err != nil {
		return nil, err
	}
	return integrations, nil
}

// Save creates or updates an integration
func (r *GormIntegrationRepository) Save(ctx context.Context, integ *integration.Integration) error {
	if err := r.db.WithContext(ctx).Save(integ).Error; err != nil {
		return classifyWriteError(err)
	}
	return nil
}
