package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldcrm/backend/internal/domain/catalog"
	"github.com/fieldcrm/backend/internal/domain/shared"
)

// GormCatalogWriter performs atomic catalog upserts keyed by
// (project_id, external_code) among non-deleted rows. Each upsert runs in
// its own transaction: a sync batch must not roll back items that already
// committed when a later item fails.
type GormCatalogWriter struct {
	db *gorm.DB
}

// NewGormCatalogWriter creates a new GormCatalogWriter
func NewGormCatalogWriter(db *gorm.DB) *GormCatalogWriter {
	return &GormCatalogWriter{db: db}
}

// UpsertNomenklatura creates or updates a nomenklatura entry.
// Returns true when a new row was created.
func (w *GormCatalogWriter) UpsertNomenklatura(ctx context.Context, projectID uuid.UUID, fields map[string]any) (bool, error) {
	externalCode, name, err := mandatoryFields(fields)
	if err != nil {
		return false, err
	}

	created := false
	err = w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry catalog.Nomenklatura
		findErr := tx.
			Where("project_id = ? AND external_code = ? AND is_deleted = ?", projectID, externalCode, false).
			First(&entry).Error

		if findErr == nil {
			if applyErr := entry.Apply(fields); applyErr != nil {
				return applyErr
			}
			return tx.Save(&entry).Error
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		fresh, newErr := catalog.NewNomenklatura(projectID, externalCode, name)
		if newErr != nil {
			return newErr
		}
		if applyErr := fresh.Apply(fields); applyErr != nil {
			return applyErr
		}
		if createErr := tx.Create(fresh).Error; createErr != nil {
			return createErr
		}
		created = true
		return nil
	})
	if err != nil {
		return false, classifyWriteError(err)
	}
	return created, nil
}

// UpsertClient creates or updates a client. Returns true when a new row
// was created.
func (w *GormCatalogWriter) UpsertClient(ctx context.Context, projectID uuid.UUID, fields map[string]any) (bool, error) {
	externalCode, name, err := mandatoryFields(fields)
	if err != nil {
		return false, err
	}

	created := false
	err = w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var client catalog.Client
		findErr := tx.
			Where("project_id = ? AND external_code = ? AND is_deleted = ?", projectID, externalCode, false).
			First(&client).Error

		if findErr == nil {
			if applyErr := client.Apply(fields); applyErr != nil {
				return applyErr
			}
			return tx.Save(&client).Error
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		fresh, newErr := catalog.NewClient(projectID, externalCode, name)
		if newErr != nil {
			return newErr
		}
		if applyErr := fresh.Apply(fields); applyErr != nil {
			return applyErr
		}
		if createErr := tx.Create(fresh).Error; createErr != nil {
			return createErr
		}
		created = true
		return nil
	})
	if err != nil {
		return false, classifyWriteError(err)
	}
	return created, nil
}

// mandatoryFields extracts the reconciliation key fields from a mapped
// record. The mapper guarantees both; this guards direct callers.
func mandatoryFields(fields map[string]any) (externalCode, name string, err error) {
	externalCode, _ = fields["external_code"].(string)
	name, _ = fields["name"].(string)
	if externalCode == "" || name == "" {
		return "", "", shared.NewDomainError("MISSING_UPSERT_KEY",
			"Upsert requires external_code and name")
	}
	return externalCode, name, nil
}
