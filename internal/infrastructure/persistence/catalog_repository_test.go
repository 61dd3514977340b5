package persistence

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldcrm/backend/internal/domain/catalog"
	"github.com/fieldcrm/backend/internal/domain/shared"
)

func TestProjectRepository_FindByCode(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewGormProjectRepository(db)
	ctx := context.Background()

	project, err := catalog.NewProject("wh-main", "Main warehouse")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, project))

	found, err := repo.FindByCode(ctx, "wh-main")
	require.NoError(t, err)
	assert.Equal(t, project.ID, found.ID)
	assert.Equal(t, "Main warehouse", found.Name)

	_, err = repo.FindByCode(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestProjectRepository_FindAllSkipsDeleted(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewGormProjectRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		project, err := catalog.NewProject(fmt.Sprintf("proj-%d", i), fmt.Sprintf("Project %d", i))
		require.NoError(t, err)
		if i == 2 {
			project.IsDeleted = true
		}
		require.NoError(t, repo.Save(ctx, project))
	}

	projects, err := repo.FindAll(ctx, shared.Filter{})
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "proj-0", projects[0].Code)
	assert.Equal(t, "proj-1", projects[1].Code)
}

func TestProjectRepository_FindAllPagination(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewGormProjectRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		project, err := catalog.NewProject(fmt.Sprintf("proj-%d", i), fmt.Sprintf("Project %d", i))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, project))
	}

	page, err := repo.FindAll(ctx, shared.Filter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "proj-2", page[0].Code)
	assert.Equal(t, "proj-3", page[1].Code)
}

func TestNomenklaturaRepository_FindByExternalCode(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewGormNomenklaturaRepository(db)
	ctx := context.Background()
	projectID := uuid.New()

	entry, err := catalog.NewNomenklatura(projectID, "N-001", "Дрель аккумуляторная")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, entry))

	found, err := repo.FindByExternalCode(ctx, projectID, "N-001")
	require.NoError(t, err)
	assert.Equal(t, entry.ID, found.ID)
	assert.Equal(t, "Дрель аккумуляторная", found.Name)

	// Same code under another project is a different namespace
	_, err = repo.FindByExternalCode(ctx, uuid.New(), "N-001")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestNomenklaturaRepository_ListAndCount(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewGormNomenklaturaRepository(db)
	ctx := context.Background()
	projectID := uuid.New()

	for i := 0; i < 4; i++ {
		entry, err := catalog.NewNomenklatura(projectID, fmt.Sprintf("N-%03d", i), fmt.Sprintf("Item %d", i))
		require.NoError(t, err)
		if i == 3 {
			entry.IsDeleted = true
		}
		require.NoError(t, repo.Save(ctx, entry))
	}

	entries, err := repo.FindAllForProject(ctx, projectID, shared.Filter{})
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	withDeleted, err := repo.FindAllForProject(ctx, projectID, shared.Filter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, withDeleted, 4)

	count, err := repo.CountForProject(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestClientRepository_FindByExternalCode(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewGormClientRepository(db)
	ctx := context.Background()
	projectID := uuid.New()

	client, err := catalog.NewClient(projectID, "C-100", "ООО Ромашка")
	require.NoError(t, err)
	client.INN = "7707083893"
	require.NoError(t, repo.Save(ctx, client))

	found, err := repo.FindByExternalCode(ctx, projectID, "C-100")
	require.NoError(t, err)
	assert.Equal(t, client.ID, found.ID)
	assert.Equal(t, "7707083893", found.INN)

	_, err = repo.FindByExternalCode(ctx, projectID, "C-999")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestClientRepository_ListAndCount(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewGormClientRepository(db)
	ctx := context.Background()
	projectID := uuid.New()

	for i := 0; i < 3; i++ {
		client, err := catalog.NewClient(projectID, fmt.Sprintf("C-%03d", i), fmt.Sprintf("Client %d", i))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, client))
	}
	other, err := catalog.NewClient(uuid.New(), "C-000", "Other project client")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, other))

	clients, err := repo.FindAllForProject(ctx, projectID, shared.Filter{})
	require.NoError(t, err)
	assert.Len(t, clients, 3)

	count, err := repo.CountForProject(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
