package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bunkbook/internal/dto"
	"github.com/noah-isme/bunkbook/internal/models"
	"github.com/noah-isme/bunkbook/internal/service"
	appErrors "github.com/noah-isme/bunkbook/pkg/errors"
)

type timetableServiceMock struct {
	timetable     models.Timetable
	resolvedIndex int
	resolvedKeep  models.ConflictKeep
	slotReq       dto.ManualSlotRequest
	slotID        string
	err           error
}

func (m *timetableServiceMock) Timetable() models.Timetable { return m.timetable }

func (m *timetableServiceMock) CurrentAndNext() models.CurrentAndNext { return models.CurrentAndNext{} }

func (m *timetableServiceMock) Nearby() models.NearbySlots { return models.NearbySlots{} }

func (m *timetableServiceMock) SuggestedSlots(courseID string) ([]models.ManualSlot, error) {
	if courseID != "c1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return []models.ManualSlot{{ID: "auto-1-0900", DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"}}, nil
}

func (m *timetableServiceMock) RegenerateTimetable(ctx context.Context) (models.Timetable, error) {
	return m.timetable, m.err
}

func (m *timetableServiceMock) ResolveConflict(ctx context.Context, index int, req dto.ResolveConflictRequest) (models.Timetable, error) {
	m.resolvedIndex = index
	m.resolvedKeep = req.Keep
	return m.timetable, m.err
}

func (m *timetableServiceMock) AddManualSlot(ctx context.Context, courseID string, req dto.ManualSlotRequest) (models.ManualSlot, error) {
	m.slotReq = req
	if m.err != nil {
		return models.ManualSlot{}, m.err
	}
	return models.ManualSlot{ID: "s1", DayOfWeek: req.DayOfWeek, StartTime: req.StartTime, EndTime: req.EndTime}, nil
}

func (m *timetableServiceMock) UpdateManualSlot(ctx context.Context, courseID, slotID string, req dto.ManualSlotRequest) (models.ManualSlot, error) {
	m.slotReq = req
	m.slotID = slotID
	return models.ManualSlot{ID: slotID}, m.err
}

func (m *timetableServiceMock) RemoveManualSlot(ctx context.Context, courseID, slotID string) error {
	m.slotID = slotID
	return m.err
}

func TestTimetableHandlerGetReportsConflicts(t *testing.T) {
	h := &TimetableHandler{service: &timetableServiceMock{timetable: models.Timetable{
		Slots:     []models.TimetableSlot{{CourseID: "c1"}},
		Conflicts: []models.SlotConflict{{}},
	}}}
	c, w := newTestContext(http.MethodGet, "/timetable", nil)

	h.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"conflicts":1`)
}

func TestTimetableHandlerResolveConflict(t *testing.T) {
	mock := &timetableServiceMock{}
	h := &TimetableHandler{service: mock}
	c, w := newTestContext(http.MethodPost, "/timetable/conflicts/2/resolve", []byte(`{"keep":"auto"}`))
	c.Params = gin.Params{{Key: "index", Value: "2"}}

	h.ResolveConflict(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, mock.resolvedIndex)
	assert.Equal(t, models.ConflictKeepAuto, mock.resolvedKeep)
}

func TestTimetableHandlerResolveConflictBadIndex(t *testing.T) {
	for _, raw := range []string{"x", "-1"} {
		h := &TimetableHandler{service: &timetableServiceMock{}}
		c, w := newTestContext(http.MethodPost, "/timetable/conflicts/"+raw+"/resolve", []byte(`{"keep":"auto"}`))
		c.Params = gin.Params{{Key: "index", Value: raw}}

		h.ResolveConflict(c)

		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
	}
}

func TestTimetableHandlerManualSlots(t *testing.T) {
	mock := &timetableServiceMock{}
	h := &TimetableHandler{service: mock}
	params := gin.Params{{Key: "courseId", Value: "c1"}, {Key: "slotId", Value: "s1"}}

	c, w := newTestContext(http.MethodPost, "/courses/c1/slots", []byte(`{"dayOfWeek":1,"startTime":"09:00","endTime":"10:00","sessionType":"lab"}`))
	c.Params = params[:1]
	h.AddSlot(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.SessionTypeLab, mock.slotReq.SessionType)

	c, w = newTestContext(http.MethodPut, "/courses/c1/slots/s1", []byte(`{"dayOfWeek":2,"startTime":"11:00","endTime":"12:00"}`))
	c.Params = params
	h.UpdateSlot(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, mock.slotReq.DayOfWeek)
	assert.Equal(t, "s1", mock.slotID)

	c, w = newTestContext(http.MethodDelete, "/courses/c1/slots/s1", nil)
	c.Params = params
	h.RemoveSlot(c)
	assert.Equal(t, http.StatusNoContent, w.Code)

	mock.err = appErrors.Clone(appErrors.ErrConflict, "slot overlaps")
	c, w = newTestContext(http.MethodPost, "/courses/c1/slots", []byte(`{"dayOfWeek":1,"startTime":"09:30","endTime":"10:30"}`))
	c.Params = params[:1]
	h.AddSlot(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTimetableHandlerSuggested(t *testing.T) {
	h := &TimetableHandler{service: &timetableServiceMock{}}

	c, w := newTestContext(http.MethodGet, "/courses/c1/slots/suggested", nil)
	c.Params = gin.Params{{Key: "courseId", Value: "c1"}}
	h.Suggested(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "auto-1-0900")

	c, w = newTestContext(http.MethodGet, "/courses/zz/slots/suggested", nil)
	c.Params = gin.Params{{Key: "courseId", Value: "zz"}}
	h.Suggested(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type exportServiceMock struct {
	dataset string
	format  string
}

func (m *exportServiceMock) Export(dataset, format string) (*service.ExportResult, error) {
	m.dataset = dataset
	m.format = format
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported format")
	}
	return &service.ExportResult{Filename: dataset + "-20260301." + format, ContentType: "text/csv", Payload: []byte("day,start\n")}, nil
}

func TestExportHandler(t *testing.T) {
	mock := &exportServiceMock{}
	h := NewExportHandler(mock)

	c, w := newTestContext(http.MethodGet, "/export/timetable", nil)
	c.Params = gin.Params{{Key: "dataset", Value: service.ExportDatasetTimetable}}
	h.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", mock.format)
	assert.Equal(t, `attachment; filename="timetable-20260301.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "day,start\n", w.Body.String())

	c, w = newTestContext(http.MethodGet, "/export/bunks?format=xml", nil)
	c.Params = gin.Params{{Key: "dataset", Value: service.ExportDatasetBunks}}
	h.Export(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.ExportDatasetBunks, mock.dataset)
}
