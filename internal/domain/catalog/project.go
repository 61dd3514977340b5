package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldcrm/backend/internal/domain/shared"
)

// Project is a catalog partition. External code uniqueness for clients and
// nomenklatura entries is scoped to one project.
type Project struct {
	shared.BaseEntity
	Name        string `gorm:"type:varchar(200);not null"`
	Code        string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Description string `gorm:"type:text"`
	IsActive    bool   `gorm:"not null;default:true"`
	IsDeleted   bool   `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (Project) TableName() string {
	return "projects"
}

// NewProject creates a new project
func NewProject(code, name string) (*Project, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Project code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Project name cannot be empty")
	}
	return &Project{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Code:       strings.ToUpper(code),
		IsActive:   true,
	}, nil
}

// Delete soft-deletes the project
func (p *Project) Delete() {
	p.IsDeleted = true
	p.IsActive = false
	p.UpdatedAt = time.Now()
}

// ProjectRepository defines the interface for project persistence
type ProjectRepository interface {
	// FindByID finds a project by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)

	// FindByCode finds a project by its code
	FindByCode(ctx context.Context, code string) (*Project, error)

	// FindAll finds all non-deleted projects
	FindAll(ctx context.Context, filter shared.Filter) ([]Project, error)

	// Save creates or updates a project
	Save(ctx context.Context, project *Project) error
}
