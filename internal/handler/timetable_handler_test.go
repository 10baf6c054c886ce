package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/middleware"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type timetableServiceMock struct {
	snapshot   *dto.TimetableResponse
	view       *dto.ViewResponse
	viewHit    bool
	edit       *dto.EditResponse
	audit      []dto.AuditEntry
	pagination *models.Pagination
	free       *timetable.RoomAvailability
	err        error

	loadReq    dto.LoadTimetableRequest
	viewArgs   []string
	cellQuery  dto.CellQuery
	auditQuery dto.AuditQuery
	revertedID string
}

func (m *timetableServiceMock) Load(ctx context.Context, id string, req dto.LoadTimetableRequest) (*dto.TimetableResponse, error) {
	m.loadReq = req
	return m.snapshot, m.err
}

func (m *timetableServiceMock) Snapshot(ctx context.Context, id string) (*dto.TimetableResponse, error) {
	return m.snapshot, m.err
}

func (m *timetableServiceMock) Entities(ctx context.Context, id, mode string) (*dto.EntitiesResponse, error) {
	return &dto.EntitiesResponse{Mode: timetable.ViewMode(mode), Entities: []string{"SE-A"}}, m.err
}

func (m *timetableServiceMock) View(ctx context.Context, id, mode, entity string) (*dto.ViewResponse, bool, error) {
	m.viewArgs = []string{id, mode, entity}
	return m.view, m.viewHit, m.err
}

func (m *timetableServiceMock) Cell(ctx context.Context, id string, query dto.CellQuery) (*dto.CellResponse, error) {
	m.cellQuery = query
	return &dto.CellResponse{Found: false}, m.err
}

func (m *timetableServiceMock) FreeRooms(ctx context.Context, id string, query dto.FreeRoomsQuery) (*timetable.RoomAvailability, error) {
	return m.free, m.err
}

func (m *timetableServiceMock) AddEntry(ctx context.Context, id string, req dto.AddEntryRequest) (*dto.EditResponse, error) {
	return m.edit, m.err
}

func (m *timetableServiceMock) DeleteEntry(ctx context.Context, id string, req dto.DeleteEntryRequest) (*dto.EditResponse, error) {
	return m.edit, m.err
}

func (m *timetableServiceMock) Audit(ctx context.Context, id string, query dto.AuditQuery) ([]dto.AuditEntry, *models.Pagination, error) {
	m.auditQuery = query
	return m.audit, m.pagination, m.err
}

func (m *timetableServiceMock) Revert(ctx context.Context, id, logID string) (*dto.EditResponse, error) {
	m.revertedID = logID
	return m.edit, m.err
}

func TestTimetableHandlerLoad(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{snapshot: &dto.TimetableResponse{Version: 1}}
	handler := &TimetableHandler{service: mockSvc}

	body := []byte(`{"unplacedLectures":2,"timetable":{"SE-A":{"Mon":[{"slot":0,"duration":1,"type":"THEORY","subject":"DBMS","teacher":"Prof A","room":"701"}]}}}`)
	c, w := newGinContext(http.MethodPut, "/sessions/s1/timetable", body)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	handler.Load(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, mockSvc.loadReq.UnplacedLectures)
	require.Len(t, mockSvc.loadReq.Timetable["SE-A"]["Mon"], 1)
	assert.Equal(t, "DBMS", mockSvc.loadReq.Timetable["SE-A"]["Mon"][0].Subject)
	assert.Equal(t, "1", w.Header().Get(middleware.VersionHeader))
}

func TestTimetableHandlerLoadRejectsUnknownEntryType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{}
	handler := &TimetableHandler{service: mockSvc}

	body := []byte(`{"timetable":{"SE-A":{"Mon":[{"slot":0,"duration":1,"type":"SEMINAR"}]}}}`)
	c, w := newGinContext(http.MethodPut, "/sessions/s1/timetable", body)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	handler.Load(c)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, appErrors.ErrMalformedPayload.Code, decodeEnvelope(t, w).Error.Code)
	assert.Nil(t, mockSvc.loadReq.Timetable)
}

func TestTimetableHandlerViewReportsCacheAndVersion(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{
		view:    &dto.ViewResponse{Version: 4, View: timetable.View{Mode: timetable.ViewMaster, Entity: "SE-A"}},
		viewHit: true,
	}
	handler := &TimetableHandler{service: mockSvc}

	c, w := newGinContext(http.MethodGet, "/sessions/s1/views/master?entity=SE-A", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}, {Key: "mode", Value: "master"}}
	handler.View(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"s1", "master", "SE-A"}, mockSvc.viewArgs)
	env := decodeEnvelope(t, w)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Equal(t, float64(4), env.Meta["version"])
	assert.Equal(t, "4", w.Header().Get(middleware.VersionHeader))
}

func TestTimetableHandlerViewNotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableServiceMock{err: appErrors.ErrNotConfigured}}

	c, w := newGinContext(http.MethodGet, "/sessions/s1/views/MASTER?entity=SE-A", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}, {Key: "mode", Value: "MASTER"}}
	handler.View(c)

	require.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestTimetableHandlerCellBindsQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{}
	handler := &TimetableHandler{service: mockSvc}

	c, w := newGinContext(http.MethodGet, "/sessions/s1/cell?mode=TEACHER&entity=Prof%20A&day=Tue&slot=5", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	handler.Cell(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.CellQuery{Mode: "TEACHER", Entity: "Prof A", Day: "Tue", Slot: 5}, mockSvc.cellQuery)
}

func TestTimetableHandlerFreeRoomsBadSlot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableServiceMock{}}

	c, w := newGinContext(http.MethodGet, "/sessions/s1/rooms/free?day=Mon&slot=first", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	handler.FreeRooms(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerAddEntryConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableServiceMock{err: appErrors.ErrSlotOccupied}}

	payload, _ := json.Marshal(dto.AddEntryRequest{Division: "SE-A", Day: "Mon", Slot: 0, Duration: 1, Type: "THEORY", Subject: "OS"})
	c, w := newGinContext(http.MethodPost, "/sessions/s1/entries", payload)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	handler.AddEntry(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SLOT_OCCUPIED", decodeEnvelope(t, w).Error.Code)
}

func TestTimetableHandlerAddEntryCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &TimetableHandler{service: &timetableServiceMock{edit: &dto.EditResponse{Version: 2, LogEntry: timetable.LogEntry{ID: "log-1", Action: timetable.ActionAdd}}}}

	payload, _ := json.Marshal(dto.AddEntryRequest{Division: "SE-A", Day: "Mon", Slot: 1, Duration: 1, Type: "THEORY", Subject: "OS"})
	c, w := newGinContext(http.MethodPost, "/sessions/s1/entries", payload)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	handler.AddEntry(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "2", w.Header().Get(middleware.VersionHeader))
}

func TestTimetableHandlerAuditPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{
		audit:      []dto.AuditEntry{{ID: "log-2"}},
		pagination: &models.Pagination{Page: 2, PageSize: 1, TotalCount: 2},
	}
	handler := &TimetableHandler{service: mockSvc}

	c, w := newGinContext(http.MethodGet, "/sessions/s1/audit?page=2&pageSize=1", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}
	handler.Audit(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.AuditQuery{Page: 2, PageSize: 1}, mockSvc.auditQuery)
	env := decodeEnvelope(t, w)
	assert.Equal(t, float64(2), env.Pagination["page"])
}

func TestTimetableHandlerRevertPrecondition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &timetableServiceMock{err: appErrors.ErrRevertPrecondition}
	handler := &TimetableHandler{service: mockSvc}

	c, w := newGinContext(http.MethodPost, "/sessions/s1/audit/log-1/revert", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}, {Key: "entryId", Value: "log-1"}}
	handler.Revert(c)

	require.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.Equal(t, "log-1", mockSvc.revertedID)
}
