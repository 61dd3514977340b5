package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldcrm/backend/internal/domain/catalog"
	"github.com/fieldcrm/backend/internal/domain/shared"
)

// GormNomenklaturaRepository implements NomenklaturaRepository using GORM
type GormNomenklaturaRepository struct {
	db *gorm.DB
}

// NewGormNomenklaturaRepository creates a new GormNomenklaturaRepository
func NewGormNomenklaturaRepository(db *gorm.DB) *GormNomenklaturaRepository {
	return &GormNomenklaturaRepository{db: db}
}

// FindByID finds an entry by its ID
func (r *GormNomenklaturaRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Nomenklatura, error) {
	var entry catalog.Nomenklatura
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindByExternalCode finds a non-deleted entry by external code within a
// project. External code uniqueness holds only among non-deleted rows.
func (r *GormNomenklaturaRepository) FindByExternalCode(ctx context.Context, projectID uuid.UUID, externalCode string) (*catalog.Nomenklatura, error) {
	var entry catalog.Nomenklatura
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND external_code = ? AND is_deleted = ?", projectID, externalCode, false).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// FindAllForProject finds all entries for a project
func (r *GormNomenklaturaRepository) FindAllForProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) ([]catalog.Nomenklatura, error) {
	query := r.db.WithContext(ctx).Where("project_id = ?", projectID)
	if !filter.IncludeDeleted {
		query = query.Where("is_deleted = ?", false)
	}
	if filter.Limit() > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.Limit())
	}

	var entries []catalog.Nomenklatura
	if err := query.Order("external_code ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CountForProject counts non-deleted entries for a project
func (r *GormNomenklaturaRepository) CountForProject(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&catalog.Nomenklatura{}).
		Where("project_id = ? AND is_deleted = ?", projectID, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates an entry
func (r *GormNomenklaturaRepository) Save(ctx context.Context, entry *catalog.Nomenklatura) error {
	if err := r.db.WithContext(ctx).Save(entry).Error; err != nil {
		return classifyWriteError(err)
	}
	return nil
}
