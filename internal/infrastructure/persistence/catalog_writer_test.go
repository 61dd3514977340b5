package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fieldcrm/backend/internal/domain/catalog"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&catalog.Project{}, &catalog.Nomenklatura{}, &catalog.Client{})
	require.NoError(t, err)

	return db
}

func TestCatalogWriter_UpsertNomenklatura(t *testing.T) {
	db := setupCatalogTestDB(t)
	writer := NewGormCatalogWriter(db)
	repo := NewGormNomenklaturaRepository(db)
	ctx := context.Background()
	projectID := uuid.New()

	t.Run("creates a new entry", func(t *testing.T) {
		created, err := writer.UpsertNomenklatura(ctx, projectID, map[string]any{
			"external_code": "A-100",
			"name":          "Drill",
			"price":         decimal.RequireFromString("4500.00"),
		})
		require.NoError(t, err)
		assert.True(t, created)

		entry, err := repo.FindByExternalCode(ctx, projectID, "A-100")
		require.NoError(t, err)
		assert.Equal(t, "Drill", entry.Name)
		assert.True(t, entry.Price.Equal(decimal.RequireFromString("4500.00")))
	})

	t.Run("updates the existing entry on the same key", func(t *testing.T) {
		created, err := writer.UpsertNomenklatura(ctx, projectID, map[string]any{
			"external_code": "A-100",
			"name":          "Cordless drill",
			"price":         decimal.RequireFromString("4999.90"),
		})
		require.NoError(t, err)
		assert.False(t, created)

		entry, err := repo.FindByExternalCode(ctx, projectID, "A-100")
		require.NoError(t, err)
		assert.Equal(t, "Cordless drill", entry.Name)
		assert.True(t, entry.Price.Equal(decimal.RequireFromString("4999.90")))

		count, err := repo.CountForProject(ctx, projectID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("same code in another project is a separate entity", func(t *testing.T) {
		otherProject := uuid.New()
		created, err := writer.UpsertNomenklatura(ctx, otherProject, map[string]any{
			"external_code": "A-100",
			"name":          "Drill",
		})
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("soft-deleted entry does not absorb the upsert", func(t *testing.T) {
		entry, err := repo.FindByExternalCode(ctx, projectID, "A-100")
		require.NoError(t, err)
		entry.Delete()
		require.NoError(t, repo.Save(ctx, entry))

		created, err := writer.UpsertNomenklatura(ctx, projectID, map[string]any{
			"external_code": "A-100",
			"name":          "Drill v2",
		})
		require.NoError(t, err)
		assert.True(t, created)

		// The deleted row stays for audit alongside the new one
		var total int64
		require.NoError(t, db.Model(&catalog.Nomenklatura{}).
			Where("project_id = ? AND external_code = ?", projectID, "A-100").
			Count(&total).Error)
		assert.Equal(t, int64(2), total)

		fresh, err := repo.FindByExternalCode(ctx, projectID, "A-100")
		require.NoError(t, err)
		assert.Equal(t, "Drill v2", fresh.Name)
		assert.False(t, fresh.IsDeleted)
	})

	t.Run("rejects fields without the reconciliation key", func(t *testing.T) {
		_, err := writer.UpsertNomenklatura(ctx, projectID, map[string]any{
			"name": "Nameless",
		})
		assert.Error(t, err)
	})
}

func TestCatalogWriter_UpsertClient(t *testing.T) {
	db := setupCatalogTestDB(t)
	writer := NewGormCatalogWriter(db)
	repo := NewGormClientRepository(db)
	ctx := context.Background()
	projectID := uuid.New()

	created, err := writer.UpsertClient(ctx, projectID, map[string]any{
		"external_code": "C-1",
		"name":          "Romashka LLC",
		"inn":           "7701234567",
		"is_company":    true,
	})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = writer.UpsertClient(ctx, projectID, map[string]any{
		"external_code": "C-1",
		"name":          "Romashka Group",
	})
	require.NoError(t, err)
	assert.False(t, created)

	client, err := repo.FindByExternalCode(ctx, projectID, "C-1")
	require.NoError(t, err)
	assert.Equal(t, "Romashka Group", client.Name)
	// Fields absent from the later record keep their previous values
	assert.Equal(t, "7701234567", client.INN)
	assert.True(t, client.IsCompany)
}
