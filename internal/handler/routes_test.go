package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bunkbook/internal/models"
	"github.com/noah-isme/bunkbook/internal/repository"
	"github.com/noah-isme/bunkbook/internal/service"
)

type staticFeed struct {
	courses []models.CourseAttendance
}

func (f staticFeed) Fetch(ctx context.Context) ([]models.CourseAttendance, error) {
	return f.courses, nil
}

func buildTestRouter(t *testing.T) (*gin.Engine, *service.AttendanceService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	feed := staticFeed{courses: []models.CourseAttendance{{
		CourseID:   "c1",
		CourseName: "CS2001 Data Structures",
		Records: []models.AttendanceRecord{
			{Date: "Mon 5 Jan 2026 9AM - 10AM", Description: "Lecture", Status: models.AttendanceStatusPresent},
			{Date: "Mon 12 Jan 2026 9AM - 10AM", Description: "Lecture", Status: models.AttendanceStatusAbsent},
			{Date: "Mon 19 Jan 2026 9AM - 10AM", Description: "Lecture", Status: models.AttendanceStatusUnknown},
		},
	}}}
	parser := service.NewRecordParser(service.RecordParserConfig{})
	ledger := service.NewBunkLedger(parser, service.BunkLedgerConfig{
		CreditTable: map[string]int{"CS2001": 3},
		Location:    time.UTC,
	})
	metrics := service.NewMetricsService()
	store := repository.NewRedisStateRepository(nil, nil)
	svc := service.NewAttendanceService(feed, store, parser, ledger, service.AttendanceServiceConfig{}, nil, metrics, nil)
	require.NoError(t, svc.RefreshNow(context.Background()))

	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), Handlers{
		Sync:      NewSyncHandler(svc),
		Course:    NewCourseHandler(svc),
		Bunk:      NewBunkHandler(svc),
		Unknown:   NewUnknownHandler(svc),
		Timetable: NewTimetableHandler(svc),
		Export:    NewExportHandler(service.NewExportService(svc, ledger, nil, nil, nil)),
		Metrics:   NewMetricsHandler(metrics, store),
	})
	return router, svc
}

func performRequest(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRoutesBudgetFlow(t *testing.T) {
	router, svc := buildTestRouter(t)

	resp := performRequest(router, http.MethodGet, "/api/v1/courses/c1", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var envelope struct {
		Data models.CourseOverview `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	assert.Equal(t, 7, envelope.Data.Stats.TotalBunks)
	assert.Equal(t, 1, envelope.Data.Stats.UsedBunks)
	require.NotEmpty(t, envelope.Data.Bunks)

	var absenceID string
	for _, bunk := range envelope.Data.Bunks {
		if bunk.Source == models.BunkSourceLMS {
			absenceID = bunk.ID
		}
	}
	require.NotEmpty(t, absenceID)

	resp = performRequest(router, http.MethodPut, "/api/v1/courses/c1/bunks/"+absenceID+"/duty-leave", `{"note":"sports meet"}`)
	require.Equal(t, http.StatusNoContent, resp.Code)

	course, err := svc.Course("c1")
	require.NoError(t, err)
	assert.Equal(t, 0, course.Stats.UsedBunks)
	assert.Equal(t, 1, course.Stats.DutyLeaveCount)

	resp = performRequest(router, http.MethodGet, "/api/v1/duty-leaves", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "sports meet")
}

func TestRoutesUnknownAndTimetable(t *testing.T) {
	router, _ := buildTestRouter(t)

	resp := performRequest(router, http.MethodGet, "/api/v1/unknowns", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"pending":1`)

	resp = performRequest(router, http.MethodPost, "/api/v1/unknowns/resolve",
		`{"courseId":"c1","date":"Mon 19 Jan 2026 9AM - 10AM","description":"Lecture","action":"confirm_absent"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), string(models.UnknownStateConfirmedAbsent))

	resp = performRequest(router, http.MethodGet, "/api/v1/timetable", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"startTime":"09:00"`)

	resp = performRequest(router, http.MethodPost, "/api/v1/courses/c1/slots", `{"dayOfWeek":1,"startTime":"09:30","endTime":"10:30"}`)
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = performRequest(router, http.MethodGet, "/api/v1/timetable", "")
	assert.Contains(t, resp.Body.String(), `"conflicts":1`)

	resp = performRequest(router, http.MethodPost, "/api/v1/timetable/conflicts/0/resolve", `{"keep":"manual"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"conflicts":[]`)
}

func TestRoutesExportAndSystem(t *testing.T) {
	router, _ := buildTestRouter(t)

	resp := performRequest(router, http.MethodGet, "/api/v1/export/bunks?format=csv", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "course,date,slot,description,status,note,bunksLeft")

	resp = performRequest(router, http.MethodGet, "/api/v1/system/metrics", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "refreshesTotal")

	resp = performRequest(router, http.MethodGet, "/api/v1/sync/status", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"courseCount":1`)
}
