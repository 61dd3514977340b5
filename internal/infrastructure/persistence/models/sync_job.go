package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/fieldcrm/backend/internal/domain/integration"
)

// SyncJobModel is the persistence model for the SyncJob domain entity.
type SyncJobModel struct {
	BaseModel
	TaskID        string                    `gorm:"type:varchar(64);not null;uniqueIndex"`
	IntegrationID uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Kind          integration.SyncKind      `gorm:"type:varchar(20);not null"`
	Status        integration.SyncJobStatus `gorm:"type:varchar(20);not null;default:'fetching';index"`

	TotalItems     int `gorm:"not null;default:0"`
	ProcessedItems int `gorm:"not null;default:0"`
	CreatedItems   int `gorm:"not null;default:0"`
	UpdatedItems   int `gorm:"not null;default:0"`
	ErrorItems     int `gorm:"not null;default:0"`

	Message      string `gorm:"type:text"`
	ErrorDetails string `gorm:"type:text"`

	StartTime time.Time  `gorm:"not null"`
	EndTime   *time.Time
}

// TableName returns the table name for GORM
func (SyncJobModel) TableName() string {
	return "sync_jobs"
}

// ToDomain converts the persistence model to a domain SyncJob entity.
func (m *SyncJobModel) ToDomain() *integration.SyncJob {
	return &integration.SyncJob{
		BaseEntity:     m.BaseModel.ToDomain(),
		TaskID:         m.TaskID,
		IntegrationID:  m.IntegrationID,
		Kind:           m.Kind,
		Status:         m.Status,
		TotalItems:     m.TotalItems,
		ProcessedItems: m.ProcessedItems,
		CreatedItems:   m.CreatedItems,
		UpdatedItems:   m.UpdatedItems,
		ErrorItems:     m.ErrorItems,
		Message:        m.Message,
		ErrorDetails:   m.ErrorDetails,
		StartTime:      m.StartTime,
		EndTime:        m.EndTime,
	}
}

// FromDomain populates the persistence model from a domain SyncJob entity.
func (m *SyncJobModel) FromDomain(j *integration.SyncJob) {
	m.FromDomainBaseEntity(j.BaseEntity)
	m.TaskID = j.TaskID
	m.IntegrationID = j.IntegrationID
	m.Kind = j.Kind
	m.Status = j.Status
	m.TotalItems = j.TotalItems
	m.ProcessedItems = j.ProcessedItems
	m.CreatedItems = j.CreatedItems
	m.UpdatedItems = j.UpdatedItems
	m.ErrorItems = j.ErrorItems
	m.Message = j.Message
	m.ErrorDetails = j.ErrorDetails
	m.StartTime = j.StartTime
	m.EndTime = j.EndTime
}

// SyncJobModelFromDomain creates a new persistence model from a domain SyncJob entity.
func SyncJobModelFromDomain(j *integration.SyncJob) *SyncJobModel {
	m := &SyncJobModel{}
	m.FromDomain(j)
	return m
}
