package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fieldcrm/backend/internal/domain/shared"
	"github.com/fieldcrm/backend/internal/interfaces/http/dto"
)

// RequestIDKey is the gin context key the request ID middleware writes to
const RequestIDKey = "request_id"

func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// BaseHandler carries the response helpers shared by all HTTP handlers.
// Handlers embed it and call Success/Accepted/HandleError instead of
// building envelopes by hand.
type BaseHandler struct{}

// Success writes a 200 response with the standard success envelope
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Accepted writes a 202 response, used when a sync run has been queued
// but not yet executed
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// Error writes an error envelope with the given status and code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest writes a 400 with ERR_BAD_REQUEST
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// HandleError translates an error into an HTTP response. Domain errors
// carry their own code and map through the dto status table; anything
// else becomes an opaque 500 so internals do not leak to clients.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}
