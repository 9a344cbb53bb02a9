package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bunkbook/internal/dto"
	"github.com/noah-isme/bunkbook/internal/models"
	appErrors "github.com/noah-isme/bunkbook/pkg/errors"
)

type courseServiceMock struct {
	courses    []models.CourseOverview
	configured dto.ConfigureCourseRequest
	created    dto.CreateCustomCourseRequest
	deleted    string
}

func (m *courseServiceMock) Courses() []models.CourseOverview { return m.courses }

func (m *courseServiceMock) Course(courseID string) (models.CourseOverview, error) {
	for _, course := range m.courses {
		if course.CourseID == courseID {
			return course, nil
		}
	}
	return models.CourseOverview{}, appErrors.Clone(appErrors.ErrNotFound, "course not found")
}

func (m *courseServiceMock) DutyLeaves() []models.DutyLeaveEntry { return []models.DutyLeaveEntry{} }

func (m *courseServiceMock) AttendanceSummary() []models.AttendanceSummary {
	return []models.AttendanceSummary{}
}

func (m *courseServiceMock) ConfigureCourse(ctx context.Context, courseID string, req dto.ConfigureCourseRequest) (models.CourseOverview, error) {
	m.configured = req
	return m.Course(courseID)
}

func (m *courseServiceMock) CreateCustomCourse(ctx context.Context, req dto.CreateCustomCourseRequest) (models.CourseOverview, error) {
	m.created = req
	course := models.CourseOverview{}
	course.CourseID = "custom-1"
	course.CourseName = req.Name
	course.IsCustomCourse = true
	return course, nil
}

func (m *courseServiceMock) DeleteCustomCourse(ctx context.Context, courseID string) error {
	m.deleted = courseID
	return nil
}

func courseMockWith(ids ...string) *courseServiceMock {
	mock := &courseServiceMock{}
	for _, id := range ids {
		course := models.CourseOverview{}
		course.CourseID = id
		mock.courses = append(mock.courses, course)
	}
	return mock
}

func TestCourseHandlerList(t *testing.T) {
	h := &CourseHandler{service: courseMockWith("c1", "c2")}
	c, w := newTestContext(http.MethodGet, "/courses", nil)

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	var meta map[string]int
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w)["meta"], &meta))
	assert.Equal(t, 2, meta["total"])
}

func TestCourseHandlerGetNotFound(t *testing.T) {
	h := &CourseHandler{service: courseMockWith("c1")}
	c, w := newTestContext(http.MethodGet, "/courses/zz", nil)
	c.Params = gin.Params{{Key: "courseId", Value: "zz"}}

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCourseHandlerConfigure(t *testing.T) {
	mock := courseMockWith("c1")
	h := &CourseHandler{service: mock}
	c, w := newTestContext(http.MethodPut, "/courses/c1/config", []byte(`{"credits":4,"overrideLmsSlots":true}`))
	c.Params = gin.Params{{Key: "courseId", Value: "c1"}}

	h.Configure(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mock.configured.Credits)
	assert.Equal(t, 4, *mock.configured.Credits)
	assert.Nil(t, mock.configured.Alias)
	require.NotNil(t, mock.configured.OverrideLmsSlots)
	assert.True(t, *mock.configured.OverrideLmsSlots)
}

func TestCourseHandlerConfigureRejectsMalformedBody(t *testing.T) {
	h := &CourseHandler{service: courseMockWith("c1")}
	c, w := newTestContext(http.MethodPut, "/courses/c1/config", []byte(`{"credits":"four"}`))
	c.Params = gin.Params{{Key: "courseId", Value: "c1"}}

	h.Configure(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), appErrors.ErrValidation.Code)
}

func TestCourseHandlerCustomLifecycle(t *testing.T) {
	mock := courseMockWith()
	h := &CourseHandler{service: mock}

	c, w := newTestContext(http.MethodPost, "/courses", []byte(`{"name":"Yoga","credits":2}`))
	h.CreateCustom(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Yoga", mock.created.Name)
	assert.Equal(t, 2, mock.created.Credits)

	c, w = newTestContext(http.MethodDelete, "/courses/custom-1", nil)
	c.Params = gin.Params{{Key: "courseId", Value: "custom-1"}}
	h.DeleteCustom(c)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "custom-1", mock.deleted)
}
