package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/middleware"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type sessionServiceMock struct {
	session    *dto.SessionResponse
	grid       *dto.GridResponse
	err        error
	createReq  dto.CreateSessionRequest
	timingReq  dto.UpdateTimingRequest
	deletedIDs []string
}

func (m *sessionServiceMock) Create(ctx context.Context, req dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	m.createReq = req
	return m.session, m.err
}

func (m *sessionServiceMock) Get(ctx context.Context, id string) (*dto.SessionResponse, error) {
	return m.session, m.err
}

func (m *sessionServiceMock) Delete(ctx context.Context, id string) error {
	m.deletedIDs = append(m.deletedIDs, id)
	return m.err
}

func (m *sessionServiceMock) UpdateTiming(ctx context.Context, id string, req dto.UpdateTimingRequest) (*dto.GridResponse, error) {
	m.timingReq = req
	return m.grid, m.err
}

func (m *sessionServiceMock) Grid(ctx context.Context, id string) (*dto.GridResponse, error) {
	return m.grid, m.err
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Meta       map[string]interface{} `json:"meta"`
	Pagination map[string]interface{} `json:"pagination"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestSessionHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &sessionServiceMock{session: &dto.SessionResponse{ID: "session-1", Department: "Computer Engineering"}}
	handler := &SessionHandler{service: mockSvc}

	payload, _ := json.Marshal(dto.CreateSessionRequest{Department: "Computer Engineering"})
	c, w := newGinContext(http.MethodPost, "/sessions", payload)

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Computer Engineering", mockSvc.createReq.Department)
	assert.Equal(t, "0", w.Header().Get(middleware.VersionHeader))
}

func TestSessionHandlerCreateRejectsBadJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &SessionHandler{service: &sessionServiceMock{}}

	c, w := newGinContext(http.MethodPost, "/sessions", []byte("{"))
	handler.Create(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, w).Error.Code)
}

func TestSessionHandlerGetExpired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &SessionHandler{service: &sessionServiceMock{err: appErrors.ErrSessionExpired}}

	c, w := newGinContext(http.MethodGet, "/sessions/gone", nil)
	c.Params = gin.Params{{Key: "id", Value: "gone"}}
	handler.Get(c)

	require.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, "SESSION_EXPIRED", decodeEnvelope(t, w).Error.Code)
}

func TestSessionHandlerGetTagsVersion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &SessionHandler{service: &sessionServiceMock{session: &dto.SessionResponse{ID: "session-1", Version: 7}}}

	c, w := newGinContext(http.MethodGet, "/sessions/session-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "session-1"}}
	handler.Get(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7", w.Header().Get(middleware.VersionHeader))
	assert.Equal(t, float64(7), decodeEnvelope(t, w).Meta["version"])
}

func TestSessionHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &sessionServiceMock{}
	handler := &SessionHandler{service: mockSvc}

	c, w := newGinContext(http.MethodDelete, "/sessions/session-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "session-1"}}
	handler.Delete(c)

	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Empty(t, w.Body.String())
	assert.Equal(t, []string{"session-1"}, mockSvc.deletedIDs)
}

func TestSessionHandlerUpdateTiming(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &sessionServiceMock{grid: &dto.GridResponse{Configured: true}}
	handler := &SessionHandler{service: mockSvc}

	payload, _ := json.Marshal(dto.UpdateTimingRequest{StartTime: "08:00", SlotDuration: 50, TotalSlots: 8, WorkingDays: []string{"Mon"}})
	c, w := newGinContext(http.MethodPut, "/sessions/session-1/timing", payload)
	c.Params = gin.Params{{Key: "id", Value: "session-1"}}
	handler.UpdateTiming(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50, mockSvc.timingReq.SlotDuration)
}
