package dto

import (
	"time"

	"github.com/fieldcrm/backend/internal/domain/integration"
)

// TriggerSyncRequest binds the path parameters of a sync trigger
type TriggerSyncRequest struct {
	IntegrationID string `uri:"id" binding:"required,uuid"`
	Kind          string `uri:"kind" binding:"required,oneof=nomenklatura clients"`
}

// IntegrationRef identifies the integration a job belongs to
type IntegrationRef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ProjectID string `json:"project_id"`
}

// TriggerSyncResponse is returned when a sync job has been accepted
type TriggerSyncResponse struct {
	TaskID      string         `json:"task_id"`
	Status      string         `json:"status"`
	Message     string         `json:"message"`
	Integration IntegrationRef `json:"integration"`
}

// SyncJobStatusResponse is the full snapshot of a sync job
type SyncJobStatusResponse struct {
	TaskID          string     `json:"task_id"`
	IntegrationID   string     `json:"integration_id"`
	Kind            string     `json:"kind"`
	Status          string     `json:"status"`
	TotalItems      int        `json:"total_items"`
	ProcessedItems  int        `json:"processed_items"`
	CreatedItems    int        `json:"created_items"`
	UpdatedItems    int        `json:"updated_items"`
	ErrorItems      int        `json:"error_items"`
	ProgressPercent int        `json:"progress_percent"`
	Message         string     `json:"message,omitempty"`
	ErrorDetails    string     `json:"error_details,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// IntegrationResponse describes an integration configuration
type IntegrationResponse struct {
	ID                 string    `json:"id"`
	ProjectID          string    `json:"project_id"`
	Name               string    `json:"name"`
	EndpointURL        string    `json:"endpoint_url"`
	NomenklaturaMethod string    `json:"nomenklatura_method"`
	ClientsMethod      string    `json:"clients_method"`
	ChunkSize          int       `json:"chunk_size"`
	IsEnabled          bool      `json:"is_enabled"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewSyncJobStatusResponse builds a status snapshot from a domain job
func NewSyncJobStatusResponse(job *integration.SyncJob) SyncJobStatusResponse {
	return SyncJobStatusResponse{
		TaskID:          job.TaskID,
		IntegrationID:   job.IntegrationID.String(),
		Kind:            string(job.Kind),
		Status:          string(job.Status),
		TotalItems:      job.TotalItems,
		ProcessedItems:  job.ProcessedItems,
		CreatedItems:    job.CreatedItems,
		UpdatedItems:    job.UpdatedItems,
		ErrorItems:      job.ErrorItems,
		ProgressPercent: job.ProgressPercent(),
		Message:         job.Message,
		ErrorDetails:    job.ErrorDetails,
		StartedAt:       job.StartTime,
		CompletedAt:     job.EndTime,
	}
}

// NewIntegrationResponse builds an integration DTO from the domain entity
func NewIntegrationResponse(integ *integration.Integration) IntegrationResponse {
	return IntegrationResponse{
		ID:                 integ.ID.String(),
		ProjectID:          integ.ProjectID.String(),
		Name:               integ.Name,
		EndpointURL:        integ.EndpointURL,
		NomenklaturaMethod: integ.NomenklaturaMethod,
		ClientsMethod:      integ.ClientsMethod,
		ChunkSize:          integ.ChunkSize,
		IsEnabled:          integ.IsEnabled,
		CreatedAt:          integ.CreatedAt,
		UpdatedAt:          integ.UpdatedAt,
	}
}
