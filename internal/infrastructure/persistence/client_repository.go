package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldcrm/backend/internal/domain/catalog"
	"github.com/fieldcrm/backend/internal/domain/shared"
)

// GormClientRepository implements ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByID finds a client by its ID
func (r *GormClientRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Client, error) {
	var client catalog.Client
	if err := r.db.WithContext(ctx).First(&client, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &client, nil
}

// FindByExternalCode finds a non-deleted client by external code within a project
func (r *GormClientRepository) FindByExternalCode(ctx context.Context, projectID uuid.UUID, externalCode string) (*catalog.Client, error) {
	var client catalog.Client
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND external_code = ? AND is_deleted = ?", projectID, externalCode, false).
		First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &client, nil
}

// FindAllForProject finds all clients for a project
func (r *GormClientRepository) FindAllForProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) ([]catalog.Client, error) {
	query := r.db.WithContext(ctx).Where("project_id = ?", projectID)
	if !filter.IncludeDeleted {
		query = query.Where("is_deleted = ?", false)
	}
	if filter.Limit() > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.Limit())
	}

	var clients []catalog.Client
	if err := query.Order("external_code ASC").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

// CountForProject counts non-deleted clients for a project
func (r *GormClientRepository) CountForProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&catalog.Client{}).
		Where("project_id = ? AND is_deleted = ?", projectID, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a client
func (r *GormClientRepository) Save(ctx context.Context, client *catalog.Client) error {
	if err := r.db.WithContext(ctx).Save(client).Error; err != nil {
		return classifyWriteError(err)
	}
	return nil
}
