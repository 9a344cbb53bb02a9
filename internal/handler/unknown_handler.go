package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bunkbook/internal/dto"
	"github.com/noah-isme/bunkbook/internal/models"
	appErrors "github.com/noah-isme/bunkbook/pkg/errors"
	"github.com/noah-isme/bunkbook/pkg/response"
)

type unknownService interface {
	Unknowns() []models.UnknownSession
	ResolveUnknown(ctx context.Context, req dto.ResolveUnknownRequest) ([]models.UnknownSession, error)
}

// UnknownHandler lists and resolves sessions the feed could not mark.
type UnknownHandler struct {
	service unknownService
}

// NewUnknownHandler constructs an unknown-session handler.
func NewUnknownHandler(svc unknownService) *UnknownHandler {
	return &UnknownHandler{service: svc}
}

// List godoc
// @Summary List Unknown sessions, unresolved first
// @Tags Unknowns
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /unknowns [get]
func (h *UnknownHandler) List(c *gin.Context) {
	sessions := h.service.Unknowns()
	pending := 0
	for _, session := range sessions {
		if !session.State.Resolved() {
			pending++
		}
	}
	response.JSON(c, http.StatusOK, sessions, map[string]interface{}{"total": len(sessions), "pending": pending})
}

// Resolve godoc
// @Summary Confirm, mark as duty leave or revert an Unknown session
// @Tags Unknowns
// @Accept json
// @Produce json
// @Param payload body dto.ResolveUnknownRequest true "Resolution"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /unknowns/resolve [post]
func (h *UnknownHandler) Resolve(c *gin.Context) {
	var req dto.ResolveUnknownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid resolution payload"))
		return
	}
	sessions, err := h.service.ResolveUnknown(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions)
}
