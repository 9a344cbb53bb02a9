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

type bunkService interface {
	AddBunk(ctx context.Context, courseID string, req dto.AddBunkRequest) (models.BunkRecord, error)
	RemoveBunk(ctx context.Context, courseID, bunkID string) error
	UpdateNote(ctx context.Context, courseID, bunkID string, req dto.NoteRequest) error
	SetDutyLeave(ctx context.Context, courseID, bunkID string, req dto.NoteRequest) error
	ClearDutyLeave(ctx context.Context, courseID, bunkID string) error
	SetMarkedPresent(ctx context.Context, courseID, bunkID string, req dto.NoteRequest) error
	ClearMarkedPresent(ctx context.Context, courseID, bunkID string) error
}

// BunkHandler applies user corrections to individual ledger entries.
type BunkHandler struct {
	service bunkService
}

// NewBunkHandler constructs a bunk handler.
func NewBunkHandler(svc bunkService) *BunkHandler {
	return &BunkHandler{service: svc}
}

// Add godoc
// @Summary Log an absence by hand
// @Tags Bunks
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param payload body dto.AddBunkRequest true "Absence"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses/{courseId}/bunks [post]
func (h *BunkHandler) Add(c *gin.Context) {
	var req dto.AddBunkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bunk payload"))
		return
	}
	bunk, err := h.service.AddBunk(c.Request.Context(), c.Param("courseId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, bunk)
}

// Remove godoc
// @Summary Remove a manually logged absence
// @Tags Bunks
// @Param courseId path string true "Course ID"
// @Param bunkId path string true "Bunk ID"
// @Success 204
// @Router /courses/{courseId}/bunks/{bunkId} [delete]
func (h *BunkHandler) Remove(c *gin.Context) {
	if err := h.service.RemoveBunk(c.Request.Context(), c.Param("courseId"), c.Param("bunkId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Note godoc
// @Summary Replace the note on an absence
// @Tags Bunks
// @Accept json
// @Param courseId path string true "Course ID"
// @Param bunkId path string true "Bunk ID"
// @Param payload body dto.NoteRequest true "Note"
// @Success 204
// @Router /courses/{courseId}/bunks/{bunkId}/note [put]
func (h *BunkHandler) Note(c *gin.Context) {
	h.withNote(c, h.service.UpdateNote)
}

// SetDutyLeave godoc
// @Summary Mark an absence as duty leave
// @Tags Bunks
// @Accept json
// @Param courseId path string true "Course ID"
// @Param bunkId path string true "Bunk ID"
// @Param payload body dto.NoteRequest false "Duty leave note"
// @Success 204
// @Router /courses/{courseId}/bunks/{bunkId}/duty-leave [put]
func (h *BunkHandler) SetDutyLeave(c *gin.Context) {
	h.withNote(c, h.service.SetDutyLeave)
}

// ClearDutyLeave godoc
// @Summary Remove the duty leave mark
// @Tags Bunks
// @Param courseId path string true "Course ID"
// @Param bunkId path string true "Bunk ID"
// @Success 204
// @Router /courses/{courseId}/bunks/{bunkId}/duty-leave [delete]
func (h *BunkHandler) ClearDutyLeave(c *gin.Context) {
	if err := h.service.ClearDutyLeave(c.Request.Context(), c.Param("courseId"), c.Param("bunkId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// SetPresent godoc
// @Summary Mark an absence as actually attended
// @Tags Bunks
// @Accept json
// @Param courseId path string true "Course ID"
// @Param bunkId path string true "Bunk ID"
// @Param payload body dto.NoteRequest false "Presence note"
// @Success 204
// @Router /courses/{courseId}/bunks/{bunkId}/presence [put]
func (h *BunkHandler) SetPresent(c *gin.Context) {
	h.withNote(c, h.service.SetMarkedPresent)
}

// ClearPresent godoc
// @Summary Remove the presence correction
// @Tags Bunks
// @Param courseId path string true "Course ID"
// @Param bunkId path string true "Bunk ID"
// @Success 204
// @Router /courses/{courseId}/bunks/{bunkId}/presence [delete]
func (h *BunkHandler) ClearPresent(c *gin.Context) {
	if err := h.service.ClearMarkedPresent(c.Request.Context(), c.Param("courseId"), c.Param("bunkId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// withNote binds an optional note body. An empty body is an empty note.
func (h *BunkHandler) withNote(c *gin.Context, apply func(ctx context.Context, courseID, bunkID string, req dto.NoteRequest) error) {
	var req dto.NoteRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid note payload"))
			return
		}
	}
	if err := apply(c.Request.Context(), c.Param("courseId"), c.Param("bunkId"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
