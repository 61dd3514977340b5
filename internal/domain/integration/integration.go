package integration

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldcrm/backend/internal/domain/shared"
)

// DefaultChunkSize is used when an integration does not specify one.
const DefaultChunkSize = 50

// Integration represents a connection to one external 1C system.
// Each integration belongs to a catalog project (the partition its
// synced entities land in).
type Integration struct {
	shared.BaseEntity
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(200);not null;uniqueIndex"`
	// EndpointURL is the base URL of the remote web service
	EndpointURL string `gorm:"type:varchar(500);not null"`
	// Username and Password are optional basic-auth credentials
	Username string `gorm:"type:varchar(100)"`
	Password string `gorm:"type:varchar(255)"`
	// NomenklaturaMethod and ClientsMethod are the remote procedure names
	// invoked per sync kind
	NomenklaturaMethod string `gorm:"type:varchar(100);not null;default:'GetNomenklatura'"`
	ClientsMethod      string `gorm:"type:varchar(100);not null;default:'GetClients'"`
	// ChunkSize controls batch granularity for this integration's runs
	ChunkSize int  `gorm:"not null;default:50"`
	IsEnabled bool `gorm:"not null;default:true"`
	IsDeleted bool `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (Integration) TableName() string {
	return "integrations"
}

// NewIntegration creates a new integration configuration
func NewIntegration(projectID uuid.UUID, name, endpointURL string) (*Integration, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Integration name cannot be empty")
	}
	if err := validateEndpointURL(endpointURL); err != nil {
		return nil, err
	}
	return &Integration{
		BaseEntity:         shared.NewBaseEntity(),
		ProjectID:          projectID,
		Name:               name,
		EndpointURL:        endpointURL,
		NomenklaturaMethod: "GetNomenklatura",
		ClientsMethod:      "GetClients",
		ChunkSize:          DefaultChunkSize,
		IsEnabled:          true,
	}, nil
}

func validateEndpointURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return shared.NewDomainError("INVALID_ENDPOINT", "Endpoint must be an absolute URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return shared.NewDomainError("INVALID_ENDPOINT", "Endpoint scheme must be http or https")
	}
	return nil
}

// SetChunkSize updates the batch granularity; it must stay positive
func (i *Integration) SetChunkSize(size int) error {
	if size <= 0 {
		return shared.NewDomainError("INVALID_CHUNK_SIZE", "Chunk size must be greater than zero")
	}
	i.ChunkSize = size
	i.UpdatedAt = time.Now()
	return nil
}

// SetCredentials sets the basic-auth credentials
func (i *Integration) SetCredentials(username, password string) {
	i.Username = username
	i.Password = password
	i.UpdatedAt = time.Now()
}

// MethodFor returns the remote procedure name for the given sync kind
func (i *Integration) MethodFor(kind SyncKind) (string, error) {
	switch kind {
	case SyncKindNomenklatura:
		return i.NomenklaturaMethod, nil
	case SyncKindClients:
		return i.ClientsMethod, nil
	default:
		return "", shared.NewDomainError("INVALID_SYNC_KIND", "Unknown sync kind: "+string(kind))
	}
}

// IsRunnable reports whether sync jobs may be started for this integration
func (i *Integration) IsRunnable() bool {
	return i.IsEnabled && !i.IsDeleted
}

// Disable disables the integration without deleting it
func (i *Integration) Disable() {
	i.IsEnabled = false
	i.UpdatedAt = time.Now()
}

// Delete soft-deletes the integration
func (i *Integration) Delete() {
	i.IsDeleted = true
	i.IsEnabled = false
	i.UpdatedAt = time.Now()
}

// IntegrationRepository defines the interface for integration persistence
type IntegrationRepository interface {
	// FindByID finds an integration by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Integration, error)

	// FindByName finds an integration by its unique name
	FindByName(ctx context.Context, name string) (*Integration, error)

	// FindAllActive finds all enabled, non-deleted integrations
	FindAllActive(ctx context.Context) ([]Integration, error)

	// Save creates or updates an integration
	Save(ctx context.Context, integration *Integration) error
}
