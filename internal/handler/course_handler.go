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

type courseService interface {
	Courses() []models.CourseOverview
	Course(courseID string) (models.CourseOverview, error)
	DutyLeaves() []models.DutyLeaveEntry
	AttendanceSummary() []models.AttendanceSummary
	ConfigureCourse(ctx context.Context, courseID string, req dto.ConfigureCourseRequest) (models.CourseOverview, error)
	CreateCustomCourse(ctx context.Context, req dto.CreateCustomCourseRequest) (models.CourseOverview, error)
	DeleteCustomCourse(ctx context.Context, courseID string) error
}

// CourseHandler serves the per-course bunk budget and course settings.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler constructs a course handler.
func NewCourseHandler(svc courseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// List godoc
// @Summary List courses with their bunk budget
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	courses := h.service.Courses()
	response.JSON(c, http.StatusOK, courses, map[string]interface{}{"total": len(courses)})
}

// Get godoc
// @Summary Get a single course
// @Tags Courses
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{courseId} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.service.Course(c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// Configure godoc
// @Summary Update credits, alias, color or slot override of a course
// @Tags Courses
// @Accept json
// @Produce json
// @Param courseId path string true "Course ID"
// @Param payload body dto.ConfigureCourseRequest true "Course settings"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/config [put]
func (h *CourseHandler) Configure(c *gin.Context) {
	var req dto.ConfigureCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course config payload"))
		return
	}
	course, err := h.service.ConfigureCourse(c.Request.Context(), c.Param("courseId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course)
}

// CreateCustom godoc
// @Summary Add a course the LMS does not track
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body dto.CreateCustomCourseRequest true "Custom course"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) CreateCustom(c *gin.Context) {
	var req dto.CreateCustomCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid custom course payload"))
		return
	}
	course, err := h.service.CreateCustomCourse(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// DeleteCustom godoc
// @Summary Remove a custom course. LMS courses cannot be removed.
// @Tags Courses
// @Param courseId path string true "Course ID"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Router /courses/{courseId} [delete]
func (h *CourseHandler) DeleteCustom(c *gin.Context) {
	if err := h.service.DeleteCustomCourse(c.Request.Context(), c.Param("courseId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DutyLeaves godoc
// @Summary List every duty leave across courses, newest first
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /duty-leaves [get]
func (h *CourseHandler) DutyLeaves(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.DutyLeaves())
}

// Summary godoc
// @Summary Attendance percentage per course
// @Tags Courses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /attendance/summary [get]
func (h *CourseHandler) Summary(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.AttendanceSummary())
}
