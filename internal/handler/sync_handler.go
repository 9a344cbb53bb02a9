package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bunkbook/internal/models"
	"github.com/noah-isme/bunkbook/pkg/response"
)

type syncService interface {
	Status() models.SyncStatus
	TriggerRefresh(ctx context.Context) (models.SyncStatus, error)
	ResetToLms(ctx context.Context) error
}

// SyncHandler exposes the refresh lifecycle of the attendance feed.
type SyncHandler struct {
	service syncService
}

// NewSyncHandler constructs a sync handler.
func NewSyncHandler(svc syncService) *SyncHandler {
	return &SyncHandler{service: svc}
}

// Status godoc
// @Summary Current refresh status
// @Tags Sync
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sync/status [get]
func (h *SyncHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Status())
}

// Refresh godoc
// @Summary Queue a refresh from the attendance feed
// @Tags Sync
// @Produce json
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /sync/refresh [post]
func (h *SyncHandler) Refresh(c *gin.Context) {
	status, err := h.service.TriggerRefresh(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, status)
}

// Reset godoc
// @Summary Drop user corrections and rebuild the ledger from the last feed
// @Tags Sync
// @Success 204
// @Router /sync/reset [post]
func (h *SyncHandler) Reset(c *gin.Context) {
	if err := h.service.ResetToLms(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
