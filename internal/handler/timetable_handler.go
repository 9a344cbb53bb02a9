package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bunkbook/internal/dto"
	"github.com/noah-isme/bunkbook/internal/models"
	appErrors "github.com/noah-isme/bunkbook/pkg/errors"
	"github.com/noah-isme/bunkbook/pkg/response"
)

type timetableService interface {
	Timetable() models.Timetable
	CurrentAndNext() models.CurrentAndNext
	Nearby() models.NearbySlots
	SuggestedSlots(courseID string) ([]models.ManualSlot, error)
	RegenerateTimetable(ctx context.Context) (models.Timetable, error)
	ResolveConflict(ctx context.Context, index int, req dto.ResolveConflictRequest) (models.Timetable, error)
	AddManualSlot(ctx context.Context, courseID string, req dto.ManualSlotRequest) (models.ManualSlot, error)
	UpdateManualSlot(ctx context.Context, courseID, slotID string, req dto.ManualSlotRequest) (models.ManualSlot, error)
	RemoveManualSlot(ctx context.Context, courseID, slotID string) error
}

// TimetableHandler serves the synthesized weekly timetable and manual slot editing.
type TimetableHandler struct {
	service timetableService
}

// NewTimetableHandler constructs a timetable handler.
func NewTimetableHandler(svc timetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Get godoc
// @Summary Current weekly timetable with open conflicts
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	tt := h.service.Timetable()
	response.JSON(c, http.StatusOK, tt, map[string]interface{}{"conflicts": len(tt.Conflicts)})
}

// Generate godoc
// @Summary Rebuild the timetable from attendance and manual slots
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	tt, err := h.service.RegenerateTimetable(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tt)
}

// ResolveConflict godoc
// @Summary Keep one side of a manual/auto conflict
// @Tags Timetable
// @Accept json
// @Produce json
// @Param index path int true "Conflict index"
// @Param payload body dto.ResolveConflictRequest true "Side to keep"
// @Success 200 {object} response.Envelope
// @Router /timetable/conflicts/{index}/resolve [post]
func (h *TimetableHandler) ResolveConflict(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "conflict index must be a non-negative integer"))
		return
	}
	var req dto.ResolveConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid conflict payload"))
		return
	}
	tt, err := h.service.ResolveConflict(c.Request.Context(), index, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tt)
}

// Now godoc
// @Summary Class in progress and the next class this week
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/now [get]
func (h *TimetableHandler) Now(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.CurrentAndNext())
}

// Nearby godoc
// @Summary Today's slots around the current moment
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timetable/nearby [get]
func (h *TimetableHandler) Nearby(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Nearby())
}

// Suggested godoc
// @Summary Slots inferred from a course's attendance history
// @Tags Timetable
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/slots/suggested [get]
func (h *TimetableHandler) Suggested(c *gin.Context) {
	slots, err := h.service.SuggestedSlots(c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots)
}

// AddSlot godoc
// @Summary Declare a manual weekly slot
// @Tags Timetable
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param payload body dto.ManualSlotRequest true "Slot"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses/{courseId}/slots [post]
func (h *TimetableHandler) AddSlot(c *gin.Context) {
	var req dto.ManualSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}
	slot, err := h.service.AddManualSlot(c.Request.Context(), c.Param("courseId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// UpdateSlot godoc
// @Summary Replace a manual weekly slot
// @Tags Timetable
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param slotId path string true "Slot ID"
// @Param payload body dto.ManualSlotRequest true "Slot"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/slots/{slotId} [put]
func (h *TimetableHandler) UpdateSlot(c *gin.Context) {
	var req dto.ManualSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}
	slot, err := h.service.UpdateManualSlot(c.Request.Context(), c.Param("courseId"), c.Param("slotId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot)
}

// RemoveSlot godoc
// @Summary Delete a manual weekly slot
// @Tags Timetable
// @Param courseId path string true "Course ID"
// @Param slotId path string true "Slot ID"
// @Success 204
// @Router /courses/{courseId}/slots/{slotId} [delete]
func (h *TimetableHandler) RemoveSlot(c *gin.Context) {
	if err := h.service.RemoveManualSlot(c.Request.Context(), c.Param("courseId"), c.Param("slotId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
