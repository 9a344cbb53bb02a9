package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/bunkbook/internal/dto"
	"github.com/noah-isme/bunkbook/internal/models"
	appErrors "github.com/noah-isme/bunkbook/pkg/errors"
)

type unknownServiceMock struct {
	sessions []models.UnknownSession
	resolved dto.ResolveUnknownRequest
	err      error
}

func (m *unknownServiceMock) Unknowns() []models.UnknownSession { return m.sessions }

func (m *unknownServiceMock) ResolveUnknown(ctx context.Context, req dto.ResolveUnknownRequest) ([]models.UnknownSession, error) {
	m.resolved = req
	if m.err != nil {
		return nil, m.err
	}
	return m.sessions, nil
}

func TestUnknownHandlerListCountsPending(t *testing.T) {
	h := &UnknownHandler{service: &unknownServiceMock{sessions: []models.UnknownSession{
		{CourseID: "c1", State: models.UnknownStateAssumedPresent},
		{CourseID: "c1", State: models.UnknownStateConfirmedAbsent},
		{CourseID: "c2", State: models.UnknownStateAssumedPresent},
	}}}
	c, w := newTestContext(http.MethodGet, "/unknowns", nil)

	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	var meta map[string]int
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w)["meta"], &meta))
	assert.Equal(t, 3, meta["total"])
	assert.Equal(t, 2, meta["pending"])
}

func TestUnknownHandlerResolve(t *testing.T) {
	mock := &unknownServiceMock{}
	h := &UnknownHandler{service: mock}
	c, w := newTestContext(http.MethodPost, "/unknowns/resolve", []byte(`{"courseId":"c1","date":"19 Jan 2026 9-10AM","description":"Lecture","action":"confirm_absent","note":"overslept"}`))

	h.Resolve(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.UnknownActionConfirmAbsent, mock.resolved.Action)
	assert.Equal(t, "overslept", mock.resolved.Note)
}

func TestUnknownHandlerResolveNotFound(t *testing.T) {
	h := &UnknownHandler{service: &unknownServiceMock{err: appErrors.Clone(appErrors.ErrNotFound, "session not found")}}
	c, w := newTestContext(http.MethodPost, "/unknowns/resolve", []byte(`{"courseId":"c1","date":"x","description":"y","action":"revert"}`))

	h.Resolve(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
