package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is implemented by every aggregate root in the domain
type Entity interface {
	GetID() uuid.UUID
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time
}

// BaseEntity holds the identity and timestamps every entity carries
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e *BaseEntity) GetID() uuid.UUID        { return e.ID }
func (e *BaseEntity) GetCreatedAt() time.Time { return e.CreatedAt }
func (e *BaseEntity) GetUpdatedAt() time.Time { return e.UpdatedAt }

// NewBaseEntity assigns a fresh UUID and stamps both timestamps with now
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ProjectEntity extends BaseEntity for entities scoped to a catalog
// project. The project is the partition that external code uniqueness is
// relative to.
type ProjectEntity struct {
	BaseEntity
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// NewProjectEntity builds a project-scoped entity with a fresh identity
func NewProjectEntity(projectID uuid.UUID) ProjectEntity {
	return ProjectEntity{
		BaseEntity: NewBaseEntity(),
		ProjectID:  projectID,
	}
}
