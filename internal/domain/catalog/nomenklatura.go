package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldcrm/backend/internal/domain/shared"
)

// Nomenklatura represents a catalog item (SKU) reconciled from the external
// ERP. It is uniquely identified by (project, external code) among non-deleted
// rows.
type Nomenklatura struct {
	shared.ProjectEntity
	ExternalCode   string          `gorm:"type:varchar(100);not null;index"`
	Name           string          `gorm:"type:varchar(500);not null"`
	Article        string          `gorm:"type:varchar(100);index"`
	Description    string          `gorm:"type:text"`
	Unit           string          `gorm:"type:varchar(50)"`
	Manufacturer   string          `gorm:"type:varchar(255)"`
	Barcode        string          `gorm:"type:varchar(100)"`
	Price          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Weight         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	WarrantyMonths int             `gorm:"not null;default:0"`
	IsService      bool            `gorm:"not null;default:false"`
	ReleaseDate    *time.Time      `gorm:"type:date"`
	Attributes     string          `gorm:"type:jsonb"` // JSON storage for unmapped remote attributes
	IsDeleted      bool            `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (Nomenklatura) TableName() string {
	return "nomenklatura"
}

// NewNomenklatura creates a new nomenklatura entry
func NewNomenklatura(projectID uuid.UUID, externalCode, name string) (*Nomenklatura, error) {
	externalCode = strings.TrimSpace(externalCode)
	name = strings.TrimSpace(name)
	if externalCode == "" {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_CODE", "External code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	return &Nomenklatura{
		ProjectEntity: shared.NewProjectEntity(projectID),
		ExternalCode:  externalCode,
		Name:          name,
		Price:         decimal.Zero,
		Quantity:      decimal.Zero,
		Weight:        decimal.Zero,
		Attributes:    "{}",
	}, nil
}

// nomenklaturaFields is the set of field names the sync mapper may assign to.
var nomenklaturaFields = map[string]struct{}{
	"external_code":   {},
	"name":            {},
	"article":         {},
	"description":     {},
	"unit":            {},
	"manufacturer":    {},
	"barcode":         {},
	"price":           {},
	"quantity":        {},
	"weight":          {},
	"warranty_months": {},
	"is_service":      {},
	"release_date":    {},
	"attributes":      {},
}

// NomenklaturaHasField reports whether the nomenklatura schema declares the
// given internal field name.
func NomenklaturaHasField(name string) bool {
	_, ok := nomenklaturaFields[name]
	return ok
}

// Apply assigns mapped field values onto the entity. Keys not declared by the
// schema are ignored; a value of the wrong type fails the whole item.
func (n *Nomenklatura) Apply(fields map[string]any) error {
	for name, value := range fields {
		if err := n.applyField(name, value); err != nil {
			return err
		}
	}
	n.UpdatedAt = time.Now()
	return nil
}

func (n *Nomenklatura) applyField(name string, value any) error {
	switch name {
	case "external_code":
		return assignString(name, value, &n.ExternalCode)
	case "name":
		return assignString(name, value, &n.Name)
	case "article":
		return assignString(name, value, &n.Article)
	case "description":
		return assignString(name, value, &n.Description)
	case "unit":
		return assignString(name, value, &n.Unit)
	case "manufacturer":
		return assignString(name, value, &n.Manufacturer)
	case "barcode":
		return assignString(name, value, &n.Barcode)
	case "attributes":
		return assignString(name, value, &n.Attributes)
	case "price":
		return assignDecimal(name, value, &n.Price)
	case "quantity":
		return assignDecimal(name, value, &n.Quantity)
	case "weight":
		return assignDecimal(name, value, &n.Weight)
	case "warranty_months":
		return assignInt(name, value, &n.WarrantyMonths)
	case "is_service":
		return assignBool(name, value, &n.IsService)
	case "release_date":
		return assignDate(name, value, &n.ReleaseDate)
	default:
		return nil
	}
}

// Delete soft-deletes the entry, releasing its external code for reuse
func (n *Nomenklatura) Delete() {
	n.IsDeleted = true
	n.UpdatedAt = time.Now()
}

// assignment helpers shared by the catalog entities

func assignString(field string, value any, dst *string) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("field %s: expected string, got %T", field, value)
	}
	*dst = s
	return nil
}

func assignDecimal(field string, value any, dst *decimal.Decimal) error {
	d, ok := value.(decimal.Decimal)
	if !ok {
		return fmt.Errorf("field %s: expected decimal, got %T", field, value)
	}
	*dst = d
	return nil
}

func assignInt(field string, value any, dst *int) error {
	i, ok := value.(int64)
	if !ok {
		return fmt.Errorf("field %s: expected integer, got %T", field, value)
	}
	*dst = int(i)
	return nil
}

func assignBool(field string, value any, dst *bool) error {
	b, ok := value.(bool)
	if !ok {
		return fmt.Errorf("field %s: expected boolean, got %T", field, value)
	}
	*dst = b
	return nil
}

func assignDate(field string, value any, dst **time.Time) error {
	t, ok := value.(time.Time)
	if !ok {
		return fmt.Errorf("field %s: expected date, got %T", field, value)
	}
	*dst = &t
	return nil
}

// NomenklaturaRepository defines the interface for nomenklatura persistence
type NomenklaturaRepository interface {
	// FindByID finds an entry by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Nomenklatura, error)

	// FindByExternalCode finds a non-deleted entry by external code within a project
	FindByExternalCode(ctx context.Context, projectID uuid.UUID, externalCode string) (*Nomenklatura, error)

	// FindAllForProject finds all entries for a project
	FindAllForProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) ([]Nomenklatura, error)

	// CountForProject counts non-deleted entries for a project
	CountForProject(ctx context.Context, projectID uuid.UUID) (int64, error)

	// Save creates or updates an entry
	Save(ctx context.Context, item *Nomenklatura) error
}
