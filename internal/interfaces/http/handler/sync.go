package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	syncapp "github.com/fieldcrm/backend/internal/application/sync"
	"github.com/fieldcrm/backend/internal/domain/integration"
	"github.com/fieldcrm/backend/internal/interfaces/http/dto"
)

// SyncHandler handles catalog synchronization API endpoints
type SyncHandler struct {
	BaseHandler
	orchestrator *syncapp.Orchestrator
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(orchestrator *syncapp.Orchestrator) *SyncHandler {
	return &SyncHandler{
		orchestrator: orchestrator,
	}
}

// Trigger starts a sync run for one integration and kind. The run executes
// in the background; the response carries the task ID to poll.
func (h *SyncHandler) Trigger(c *gin.Context) {
	var req dto.TriggerSyncRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid integration ID or sync kind")
		return
	}

	integrationID, err := uuid.Parse(req.IntegrationID)
	if err != nil {
		h.BadRequest(c, "Invalid integration ID")
		return
	}

	kind := integration.SyncKind(req.Kind)
	job, err := h.orchestrator.Start(c.Request.Context(), integrationID, kind)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	ref := dto.IntegrationRef{ID: integrationID.String()}
	if integ, err := h.orchestrator.Integration(c.Request.Context(), integrationID); err == nil {
		ref.Name = integ.Name
		ref.ProjectID = integ.ProjectID.String()
	}

	h.Accepted(c, dto.TriggerSyncResponse{
		TaskID:      job.TaskID,
		Status:      "started",
		Message:     "Synchronization started",
		Integration: ref,
	})
}

// Status returns the current snapshot of a sync job by task ID
func (h *SyncHandler) Status(c *gin.Context) {
	taskID := c.Param("task_id")
	if taskID == "" {
		h.BadRequest(c, "Task ID is required")
		return
	}

	job, err := h.orchestrator.Status(c.Request.Context(), taskID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.NewSyncJobStatusResponse(job))
}

// ListIntegrations returns integrations that syncs may be triggered for
func (h *SyncHandler) ListIntegrations(c *gin.Context) {
	integs, err := h.orchestrator.ListIntegrations(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]dto.IntegrationResponse, 0, len(integs))
	for i := range integs {
		responses = append(responses, dto.NewIntegrationResponse(&integs[i]))
	}

	h.Success(c, responses)
}

// RecentJobs lists the most recent sync runs for one integration
func (h *SyncHandler) RecentJobs(c *gin.Context) {
	integrationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid integration ID")
		return
	}

	limit := 20
	var listReq dto.ListRequest
	if err := c.ShouldBindQuery(&listReq); err == nil && listReq.PageSize > 0 {
		limit = listReq.PageSize
	}

	jobs, err := h.orchestrator.RecentJobs(c.Request.Context(), integrationID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]dto.SyncJobStatusResponse, 0, len(jobs))
	for i := range jobs {
		responses = append(responses, dto.NewSyncJobStatusResponse(&jobs[i]))
	}

	h.Success(c, responses)
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	integrations := rg.Group("/integrations")
	{
		integrations.GET("", h.ListIntegrations)
		integrations.POST("/:id/sync/:kind", h.Trigger)
		integrations.GET("/:id/jobs", h.RecentJobs)
	}

	sync := rg.Group("/sync")
	{
		sync.GET("/jobs/:task_id", h.Status)
	}
}
