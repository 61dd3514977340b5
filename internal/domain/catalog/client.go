package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fieldcrm/backend/internal/domain/shared"
)

// Client represents a counterparty reconciled from the external ERP.
// Like nomenklatura, it is anchored by (project, external code) among
// non-deleted rows.
type Client struct {
	shared.ProjectEntity
	ExternalCode    string          `gorm:"type:varchar(100);not null;index"`
	Name            string          `gorm:"type:varchar(500);not null"`
	FullName        string          `gorm:"type:varchar(1000)"`
	INN             string          `gorm:"type:varchar(20);index"`
	KPP             string          `gorm:"type:varchar(20)"`
	Phone           string          `gorm:"type:varchar(50)"`
	Email           string          `gorm:"type:varchar(255)"`
	Address         string          `gorm:"type:text"`
	ContactPerson   string          `gorm:"type:varchar(255)"`
	IsCompany       bool            `gorm:"not null;default:false"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(8,4);not null;default:0"`
	CreditLimit     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PaymentDueDays  int             `gorm:"not null;default:0"`
	RegisteredAt    *time.Time      `gorm:"type:date"`
	Attributes      string          `gorm:"type:jsonb"`
	IsDeleted       bool            `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (Client) TableName() string {
	return "clients"
}

// NewClient creates a new client
func NewClient(projectID uuid.UUID, externalCode, name string) (*Client, error) {
	externalCode = strings.TrimSpace(externalCode)
	name = strings.TrimSpace(name)
	if externalCode == "" {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_CODE", "External code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	return &Client{
		ProjectEntity:   shared.NewProjectEntity(projectID),
		ExternalCode:    externalCode,
		Name:            name,
		DiscountPercent: decimal.Zero,
		CreditLimit:     decimal.Zero,
		Attributes:      "{}",
	}, nil
}

// clientFields is the set of field names the sync mapper may assign to.
var clientFields = map[string]struct{}{
	"external_code":    {},
	"name":             {},
	"full_name":        {},
	"inn":              {},
	"kpp":              {},
	"phone":            {},
	"email":            {},
	"address":          {},
	"contact_person":   {},
	"is_company":       {},
	"discount_percent": {},
	"credit_limit":     {},
	"payment_due_days": {},
	"registered_at":    {},
	"attributes":       {},
}

// ClientHasField reports whether the client schema declares the given
// internal field name.
func ClientHasField(name string) bool {
	_, ok := clientFields[name]
	return ok
}

// Apply assigns mapped field values onto the entity. Keys not declared by the
// schema are ignored; a value of the wrong type fails the whole item.
func (c *Client) Apply(fields map[string]any) error {
	for name, value := range fields {
		if err := c.applyField(name, value); err != nil {
			return err
		}
	}
	c.UpdatedAt = time.Now()
	return nil
}

func (c *Client) applyField(name string, value any) error {
	switch name {
	case "external_code":
		return assignString(name, value, &c.ExternalCode)
	case "name":
		return assignString(name, value, &c.Name)
	case "full_name":
		return assignString(name, value, &c.FullName)
	case "inn":
		return assignString(name, value, &c.INN)
	case "kpp":
		return assignString(name, value, &c.KPP)
	case "phone":
		return assignString(name, value, &c.Phone)
	case "email":
		return assignString(name, value, &c.Email)
	case "address":
		return assignString(name, value, &c.Address)
	case "contact_person":
		return assignString(name, value, &c.ContactPerson)
	case "attributes":
		return assignString(name, value, &c.Attributes)
	case "is_company":
		return assignBool(name, value, &c.IsCompany)
	case "discount_percent":
		return assignDecimal(name, value, &c.DiscountPercent)
	case "credit_limit":
		return assignDecimal(name, value, &c.CreditLimit)
	case "payment_due_days":
		return assignInt(name, value, &c.PaymentDueDays)
	case "registered_at":
		return assignDate(name, value, &c.RegisteredAt)
	default:
		return nil
	}
}

// Delete soft-deletes the client, releasing its external code for reuse
func (c *Client) Delete() {
	c.IsDeleted = true
	c.UpdatedAt = time.Now()
}

// ClientRepository defines the interface for client persistence
type ClientRepository interface {
	// FindByID finds a client by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Client, error)

	// FindByExternalCode finds a non-deleted client by external code within a project
	FindByExternalCode(ctx context.Context, projectID uuid.UUID, externalCode string) (*Client, error)

	// FindAllForProject finds all clients for a project
	FindAllForProject(ctx context.Context, projectID uuid.UUID, filter shared.Filter) ([]Client, error)

	// CountForProject counts non-deleted clients for a project
	CountForProject(ctx context.Context, projectID uuid.UUID) (int64, error)

	// Save creates or updates a client
	Save(ctx context.Context, client *Client) error
}
